package config_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github/chapool/token-agent/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestSensitiveValuesAreRedacted(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Database.Password = "super-secret-password"
	cfg.Chain.PrivateKeyHex = "deadbeef"
	cfg.Management.Secret = "mgmt-secret"

	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}

	out := string(b)
	for _, secret := range []string{"super-secret-password", "deadbeef", "mgmt-secret"} {
		if strings.Contains(out, secret) {
			t.Errorf("marshaled config leaks sensitive value %q", secret)
		}
	}
}

func TestDatabaseConnectionString(t *testing.T) {
	cfg := config.Database{
		Host:     "localhost",
		Port:     5432,
		Username: "dbuser",
		Password: "dbpass",
		Database: "development",
		AdditionalParams: map[string]string{
			"sslmode": "disable",
		},
	}

	got := cfg.ConnectionString()
	for _, want := range []string{"host=localhost", "port=5432", "user=dbuser", "password=dbpass", "dbname=development", "sslmode=disable"} {
		if !strings.Contains(got, want) {
			t.Errorf("connection string %q is missing %q", got, want)
		}
	}
}
