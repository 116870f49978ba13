package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "50051", c.GRPCPort)
	assert.Equal(t, 720*time.Hour, c.SessionTTL)
	assert.Equal(t, "advisory.events", c.EventsExchange)
	assert.Equal(t, DriverMemory, c.StoreDriver)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: "s", StoreDriver: DriverMemory, SessionTTL: time.Hour}
	require.NoError(t, base.Validate())

	tests := []struct {
		name string
		mut  func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }},
		{"mongo without uri", func(c *Config) { c.StoreDriver = DriverMongo }},
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres; c.DatabaseURL = "" }},
		{"no secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mut(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestOrigins(t *testing.T) {
	c := Config{CORSOrigin: " http://a.test/ ,http://b.test,, "}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Origins())
}
