package submit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay(t *testing.T) {
	base := 2 * time.Second
	max := 30 * time.Second

	assert.Equal(t, 2*time.Second, Delay(0, base, max, 2))
	assert.Equal(t, 4*time.Second, Delay(1, base, max, 2))
	assert.Equal(t, 8*time.Second, Delay(2, base, max, 2))
	assert.Equal(t, 16*time.Second, Delay(3, base, max, 2))
	assert.Equal(t, 30*time.Second, Delay(4, base, max, 2), "capped at max")
	assert.Equal(t, 30*time.Second, Delay(100, base, max, 2))
}

func TestDelayBaseAboveMax(t *testing.T) {
	assert.Equal(t, time.Second, Delay(0, 5*time.Second, time.Second, 2))
}
