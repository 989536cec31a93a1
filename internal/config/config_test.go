package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationHelpers(t *testing.T) {
	redis := RedisConfig{MaxRetries: 3, RetryBackoffMS: 100}
	assert.Equal(t, 100*time.Millisecond, redis.RetryBackoff())

	dispatch := DispatchConfig{PollIntervalSeconds: 30, DueToleranceMinutes: 5}
	assert.Equal(t, 30*time.Second, dispatch.PollInterval())
	assert.Equal(t, 5*time.Minute, dispatch.DueTolerance())
}
