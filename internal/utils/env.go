package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file when one exists.
func LoadEnv() error {
	// Ignore error if .env file doesn't exist (e.g. in production)
	_ = godotenv.Load()
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt returns the value of an environment variable as an integer or a default value
func GetEnvInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvDuration reads an integer environment variable and scales it by
// unit; e.g. GetEnvDuration("ROOM_GRACE_SECONDS", 60, time.Second).
func GetEnvDuration(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(GetEnvInt(key, defaultValue)) * unit
}
