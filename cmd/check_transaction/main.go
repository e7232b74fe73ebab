//go:build tools
// +build tools

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	_ "github.com/lib/pq"

	"github/chapool/token-agent/internal/config"
	"github/chapool/token-agent/internal/token/ledger"
)

// Debugging tool: cross-checks a ledger record against on-chain state.
//
//	go run -tags tools ./cmd/check_transaction -tx mint-7f3a9c1b -rpc https://sepolia.base.org
func main() {
	var (
		txID   = flag.String("tx", "", "Caller-assigned transaction ID to check")
		rpcURL = flag.String("rpc", "", "RPC URL for blockchain (defaults to first configured URL)")
	)
	flag.Parse()

	if *txID == "" {
		fmt.Println("Error: transaction ID is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.DefaultServiceConfigFromEnv()
	if *rpcURL == "" {
		*rpcURL = cfg.Chain.RPCURLs[0]
	}

	ctx := context.Background()

	// Connect to database
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	record, err := ledger.NewService(db).Get(ctx, *txID)
	if err != nil {
		fmt.Printf("Error loading transaction record: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Transaction %s\n", record.TxID)
	fmt.Printf("  Type:     %s\n", record.TxType)
	fmt.Printf("  Wallet:   %s\n", record.WalletAddress)
	fmt.Printf("  Amount:   %s wei\n", record.AmountWei)
	fmt.Printf("  Status:   %s\n", record.Status)
	fmt.Printf("  Attempts: %d\n", record.AttemptCount)

	if record.ReservedNonce.Valid {
		fmt.Printf("  Nonce:    %d\n", record.ReservedNonce.Int64)
	}
	if record.LastError.Valid {
		fmt.Printf("  LastErr:  %s\n", record.LastError.String)
	}

	if !record.ChainTxHash.Valid {
		fmt.Println("No chain transaction hash recorded, nothing to check on chain")
		return
	}

	// Connect to RPC
	client, err := ethclient.Dial(*rpcURL)
	if err != nil {
		fmt.Printf("Error connecting to RPC: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	hash := common.HexToHash(record.ChainTxHash.String)

	_, isPending, err := client.TransactionByHash(ctx, hash)
	if err != nil {
		fmt.Printf("Error getting transaction %s: %v\n", hash.Hex(), err)
		os.Exit(1)
	}

	if isPending {
		fmt.Printf("Chain transaction %s is still pending\n", hash.Hex())
		return
	}

	receipt, err := client.TransactionReceipt(ctx, hash)
	if err != nil {
		fmt.Printf("Error getting receipt: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chain transaction %s\n", hash.Hex())
	fmt.Printf("  Block:    %d\n", receipt.BlockNumber.Uint64())
	fmt.Printf("  GasUsed:  %d\n", receipt.GasUsed)

	if receipt.Status == 1 {
		fmt.Println("  Result:   success")
	} else {
		fmt.Println("  Result:   reverted")
	}

	if record.Status == ledger.StatusConfirmed && receipt.Status != 1 {
		fmt.Println("MISMATCH: ledger says CONFIRMED but the chain transaction reverted")
		os.Exit(1)
	}
}
