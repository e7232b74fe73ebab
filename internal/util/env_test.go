package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github/chapool/token-agent/internal/util"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "value")

	assert.Equal(t, "value", util.GetEnv("TEST_ENV_STRING", "default"))
	assert.Equal(t, "default", util.GetEnv("TEST_ENV_STRING_UNSET", "default"))
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "42")
	t.Setenv("TEST_ENV_INT_INVALID", "forty-two")

	assert.Equal(t, 42, util.GetEnvAsInt("TEST_ENV_INT", 1))
	assert.Equal(t, 1, util.GetEnvAsInt("TEST_ENV_INT_INVALID", 1))
	assert.Equal(t, 1, util.GetEnvAsInt("TEST_ENV_INT_UNSET", 1))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_ENV_BOOL", "true")
	t.Setenv("TEST_ENV_BOOL_INVALID", "yep")

	assert.True(t, util.GetEnvAsBool("TEST_ENV_BOOL", false))
	assert.False(t, util.GetEnvAsBool("TEST_ENV_BOOL_INVALID", false))
	assert.True(t, util.GetEnvAsBool("TEST_ENV_BOOL_UNSET", true))
}

func TestGetEnvAsStringArr(t *testing.T) {
	t.Setenv("TEST_ENV_ARR", "a,b,c")
	t.Setenv("TEST_ENV_ARR_EMPTY", "")

	assert.Equal(t, []string{"a", "b", "c"}, util.GetEnvAsStringArr("TEST_ENV_ARR", []string{"x"}))
	assert.Equal(t, []string{"x"}, util.GetEnvAsStringArr("TEST_ENV_ARR_EMPTY", []string{"x"}))
	assert.Equal(t, []string{"x"}, util.GetEnvAsStringArr("TEST_ENV_ARR_UNSET", []string{"x"}))
}
