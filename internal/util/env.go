package util

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// GetEnv returns the ENV variable value or defaultVal if unset.
func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}

	return defaultVal
}

// GetEnvAsInt returns the ENV variable parsed as int or defaultVal if unset/unparsable.
func GetEnvAsInt(key string, defaultVal int) int {
	strVal := GetEnv(key, "")

	if val, err := strconv.Atoi(strVal); err == nil {
		return val
	}

	return defaultVal
}

// GetEnvAsBool returns the ENV variable parsed as bool or defaultVal if unset/unparsable.
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")

	if val, err := strconv.ParseBool(strVal); err == nil {
		return val
	}

	return defaultVal
}

// GetEnvAsStringArr reads ENV and returns the values split by separator.
func GetEnvAsStringArr(key string, defaultVal []string, separator ...string) []string {
	strVal := GetEnv(key, "")

	if len(strVal) == 0 {
		return defaultVal
	}

	sep := ","
	if len(separator) >= 1 {
		sep = separator[0]
	}

	vals := strings.Split(strVal, sep)
	res := make([]string, 0, len(vals))

	for _, val := range vals {
		val = strings.TrimSpace(val)
		if val != "" {
			res = append(res, val)
		}
	}

	return res
}

// GetMgmtSecret returns the management secret from ENV or generates a random
// one if unset. A missing secret does not prevent the server from starting,
// but the generated value is only logged once and changes on every start.
func GetMgmtSecret(envKey string) string {
	val := GetEnv(envKey, "")

	if len(val) > 0 {
		return val
	}

	random, err := GenerateRandomBase64String(16)
	if err != nil {
		log.Error().Err(err).Msgf("Failed to generate random management secret, check your %s ENV variable", envKey)
		return ""
	}

	log.Warn().Str("secret", random).Msgf("%s unset, using one-off random management secret", envKey)

	return random
}

// GenerateRandomBytes returns securely generated random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateRandomBase64String returns a URL-safe, base64 encoded securely generated random string.
func GenerateRandomBase64String(n int) (string, error) {
	b, err := GenerateRandomBytes(n)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
