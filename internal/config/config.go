package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application, loaded once at startup.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Bridge   BridgeConfig
	JWT      JWTConfig
	Crypto   CryptoConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

// BridgeConfig points at the external MT5 bridge service.
type BridgeConfig struct {
	URL     string
	Timeout time.Duration
}

type JWTConfig struct {
	Secret string
}

type CryptoConfig struct {
	// Key is the 32-byte AES key for broker credentials at rest.
	Key []byte
}

// Load reads configuration from environment variables. It errors on
// anything that would make the process unsafe to run: no database URL,
// no JWT secret, or an encryption key that is not exactly 32 bytes.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}
	key, err := decodeKey(os.Getenv("ENCRYPTION_KEY"))
	if err != nil {
		return nil, err
	}
	return &Config{
		Server:   ServerConfig{Port: getEnv("HTTP_PORT", "8080")},
		Database: DatabaseConfig{URL: dsn},
		Bridge: BridgeConfig{
			URL:     getEnv("MT5_BRIDGE_URL", "http://localhost:5000"),
			Timeout: getDuration("MT5_BRIDGE_TIMEOUT", 30*time.Second),
		},
		JWT: JWTConfig{Secret: secret},
		Crypto: CryptoConfig{Key: key},
	}, nil
}

// decodeKey accepts the key either hex-encoded (64 chars) or as raw bytes.
func decodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is empty")
	}
	if len(s) == 64 {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	if len(s) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes or 64 hex chars, got %d chars", len(s))
	}
	return []byte(s), nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
