package utilities

import (
	"os"
	"strconv"
	"time"
)

// EnvString returns the value of key or def when unset.
func EnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt returns key parsed as an int, or def when unset or malformed.
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// EnvDuration returns key parsed with time.ParseDuration, or def.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// EnvBool is true only for "1" or "true".
func EnvBool(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true"
}
