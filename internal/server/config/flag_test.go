package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-q", "redis:6379", "-s", "secret",
			"-t", "15", "-r", "10080", "-o", "5", "-i", "60",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddr:                 "127.0.0.1:9090",
				DatabaseDSN:                  "db",
				RedisAddr:                    "redis:6379",
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  15 * time.Minute,
				RefreshTokenValidityDuration: 10080 * time.Minute,
				OtpValidityDuration:          5 * time.Minute,
				CleanupInterval:              60 * time.Minute,
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
