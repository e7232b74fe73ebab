package submit

import "time"

// Delay returns the backoff delay before the given retry (0 is the first
// retry): min(base * multiplier^retry, max).
func Delay(retry int, base time.Duration, max time.Duration, multiplier int) time.Duration {
	delay := base
	for i := 0; i < retry; i++ {
		delay *= time.Duration(multiplier)
		if delay >= max {
			return max
		}
	}

	if delay > max {
		return max
	}

	return delay
}
