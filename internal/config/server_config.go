package config

import (
	"strconv"
	"time"

	"github/chapool/token-agent/internal/util"
)

// EchoServer config for the echo web framework.
type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableCORSMiddleware           bool
	EnableLoggerMiddleware         bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableTrailingSlashMiddleware  bool
	EnableSecureMiddleware         bool
}

type LoggerServer struct {
	Level              string
	RequestLevel       string
	LogRequestBody     bool
	LogRequestHeader   bool
	LogResponseBody    bool
	LogResponseHeader  bool
	PrettyPrintConsole bool
}

type Database struct {
	Host     string
	Port     int
	Username string
	Password string `json:"-"` // sensitive
	Database string
	// AdditionalParams e.g. sslmode=disable
	AdditionalParams map[string]string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// Redis is the shared coordination store. Nonce leases, circuit breaker
// state and the idempotency cache all live here so that multiple server
// instances observe the same state.
type Redis struct {
	URL string `json:"-"` // sensitive (may contain password)
}

// Chain config for the EVM RPC provider and the operating account.
type Chain struct {
	// RPCURLs are tried in order on connection failure (comma separated in ENV).
	RPCURLs         []string `json:"-"`
	ChainID         int64
	ContractAddress string
	// PrivateKeyHex is the backend operating account key used for signing
	// mint/burn transactions.
	PrivateKeyHex string `json:"-"` // sensitive
	// RPCTimeout bounds every single RPC call.
	RPCTimeout time.Duration
}

// Nonce config for the per-wallet nonce coordinator.
type Nonce struct {
	// LeaseTTL is the expiry on the coordination store lease so a crashed
	// holder cannot deadlock a wallet.
	LeaseTTL time.Duration
	// AcquireRetries bounds the lease acquisition loop.
	AcquireRetries int
	// AcquireBaseDelay is the initial backoff between acquisition attempts.
	AcquireBaseDelay time.Duration
	// AcquireMaxDelay caps the acquisition backoff.
	AcquireMaxDelay time.Duration
}

// Breaker config for the blockchain RPC circuit breaker.
type Breaker struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// Idempotency config for the request deduplication cache.
type Idempotency struct {
	TTL          time.Duration
	KeyMinLength int
	KeyMaxLength int
}

// Submit config for the transaction submitter retry policy.
type Submit struct {
	MaxSendAttempts    int
	MaxConfirmAttempts int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	BackoffMultiplier  int
	ConfirmTimeout     time.Duration
	// FeeBumpPercent is added to the fee fields when a send fails with an
	// underpriced/low-fee error before rebuilding.
	FeeBumpPercent int64
	MintGasLimit   uint64
	BurnGasLimit   uint64
}

type ManagementServer struct {
	Secret           string `json:"-"` // sensitive
	ReadinessTimeout time.Duration
	LivenessTimeout  time.Duration
}

// Server is the aggregate config, loaded once from ENV at startup.
type Server struct {
	Database    Database
	Redis       Redis
	Chain       Chain
	Nonce       Nonce
	Breaker     Breaker
	Idempotency Idempotency
	Submit      Submit
	Echo        EchoServer
	Logger      LoggerServer
	Management  ManagementServer
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
func DefaultServiceConfigFromEnv() Server {
	tryLoadDotEnv()

	return Server{
		Database: Database{
			Host:     util.GetEnv("PGHOST", "postgres"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Database: util.GetEnv("PGDATABASE", "development"),
			Username: util.GetEnv("PGUSER", "dbuser"),
			Password: util.GetEnv("PGPASSWORD", ""),
			AdditionalParams: map[string]string{
				"sslmode": util.GetEnv("PGSSLMODE", "disable"),
			},
			MaxOpenConns:    util.GetEnvAsInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns:    util.GetEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Second * time.Duration(util.GetEnvAsInt("DB_CONN_MAX_LIFETIME_SEC", 300)),
		},
		Redis: Redis{
			URL: util.GetEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Chain: Chain{
			RPCURLs:         util.GetEnvAsStringArr("CHAIN_RPC_URLS", []string{"http://localhost:8545"}),
			ChainID:         int64(util.GetEnvAsInt("CHAIN_ID", 84532)),
			ContractAddress: util.GetEnv("CHAIN_TOKEN_CONTRACT_ADDRESS", ""),
			PrivateKeyHex:   util.GetEnv("CHAIN_BACKEND_PRIVATE_KEY", ""),
			RPCTimeout:      time.Second * time.Duration(util.GetEnvAsInt("CHAIN_RPC_TIMEOUT_SEC", 15)),
		},
		Nonce: Nonce{
			LeaseTTL:         time.Second * time.Duration(util.GetEnvAsInt("NONCE_LEASE_TTL_SEC", 30)),
			AcquireRetries:   util.GetEnvAsInt("NONCE_ACQUIRE_RETRIES", 10),
			AcquireBaseDelay: time.Millisecond * time.Duration(util.GetEnvAsInt("NONCE_ACQUIRE_BASE_DELAY_MS", 100)),
			AcquireMaxDelay:  time.Millisecond * time.Duration(util.GetEnvAsInt("NONCE_ACQUIRE_MAX_DELAY_MS", 5000)),
		},
		Breaker: Breaker{
			FailureThreshold: util.GetEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
			SuccessThreshold: util.GetEnvAsInt("BREAKER_SUCCESS_THRESHOLD", 2),
			Timeout:          time.Second * time.Duration(util.GetEnvAsInt("BREAKER_TIMEOUT_SEC", 30)),
		},
		Idempotency: Idempotency{
			TTL:          time.Second * time.Duration(util.GetEnvAsInt("IDEMPOTENCY_TTL_SEC", 86400)),
			KeyMinLength: util.GetEnvAsInt("IDEMPOTENCY_KEY_MIN_LENGTH", 8),
			KeyMaxLength: util.GetEnvAsInt("IDEMPOTENCY_KEY_MAX_LENGTH", 64),
		},
		Submit: Submit{
			MaxSendAttempts:    util.GetEnvAsInt("SUBMIT_MAX_SEND_ATTEMPTS", 3),
			MaxConfirmAttempts: util.GetEnvAsInt("SUBMIT_MAX_CONFIRM_ATTEMPTS", 2),
			BaseDelay:          time.Second * time.Duration(util.GetEnvAsInt("SUBMIT_BASE_DELAY_SEC", 2)),
			MaxDelay:           time.Second * time.Duration(util.GetEnvAsInt("SUBMIT_MAX_DELAY_SEC", 30)),
			BackoffMultiplier:  util.GetEnvAsInt("SUBMIT_BACKOFF_MULTIPLIER", 2),
			ConfirmTimeout:     time.Second * time.Duration(util.GetEnvAsInt("SUBMIT_CONFIRM_TIMEOUT_SEC", 120)),
			FeeBumpPercent:     int64(util.GetEnvAsInt("SUBMIT_FEE_BUMP_PERCENT", 20)),
			MintGasLimit:       uint64(util.GetEnvAsInt("SUBMIT_MINT_GAS_LIMIT", 150000)),
			BurnGasLimit:       uint64(util.GetEnvAsInt("SUBMIT_BURN_GAS_LIMIT", 100000)),
		},
		Echo: EchoServer{
			Debug:                          util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
			EnableCORSMiddleware:           util.GetEnvAsBool("SERVER_ECHO_ENABLE_CORS_MIDDLEWARE", true),
			EnableLoggerMiddleware:         util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:      util.GetEnvAsBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableTrailingSlashMiddleware:  util.GetEnvAsBool("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE", true),
			EnableSecureMiddleware:         util.GetEnvAsBool("SERVER_ECHO_ENABLE_SECURE_MIDDLEWARE", true),
		},
		Logger: LoggerServer{
			Level:              util.GetEnv("SERVER_LOGGER_LEVEL", "info"),
			RequestLevel:       util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", "debug"),
			LogRequestBody:     util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_BODY", false),
			LogRequestHeader:   util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_HEADER", false),
			LogResponseBody:    util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_BODY", false),
			LogResponseHeader:  util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_HEADER", false),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Management: ManagementServer{
			Secret:           util.GetMgmtSecret("SERVER_MANAGEMENT_SECRET"),
			ReadinessTimeout: time.Second * time.Duration(util.GetEnvAsInt("SERVER_MANAGEMENT_READINESS_TIMEOUT_SEC", 4)),
			LivenessTimeout:  time.Second * time.Duration(util.GetEnvAsInt("SERVER_MANAGEMENT_LIVENESS_TIMEOUT_SEC", 9)),
		},
	}
}

// ConnectionString generates a connection string to be passed to sql.Open or equivalents, assuming Postgres syntax
func (c Database) ConnectionString() string {
	b := []byte("host=" + c.Host)
	b = append(b, (" port=" + strconv.Itoa(c.Port))...)
	b = append(b, (" user=" + c.Username)...)

	if len(c.Password) > 0 {
		b = append(b, (" password=" + c.Password)...)
	}

	b = append(b, (" dbname=" + c.Database)...)

	for param, value := range c.AdditionalParams {
		b = append(b, (" " + param + "=" + value)...)
	}

	return string(b)
}
