package util

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv returns the environment variable at key or defaultVal when unset.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// GetEnvAsBool parses the environment variable at key with strconv.ParseBool
// semantics, returning defaultVal when unset or unparsable.
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")
	if val, err := strconv.ParseBool(strVal); err == nil {
		return val
	}
	return defaultVal
}

// GetEnvAsInt parses the environment variable at key as a base 10 int,
// returning defaultVal when unset or unparsable.
func GetEnvAsInt(key string, defaultVal int) int {
	strVal := GetEnv(key, "")
	if val, err := strconv.Atoi(strVal); err == nil {
		return val
	}
	return defaultVal
}

// GetEnvAsUint64 parses the environment variable at key as a base 10 uint64,
// returning defaultVal when unset or unparsable.
func GetEnvAsUint64(key string, defaultVal uint64) uint64 {
	strVal := GetEnv(key, "")
	if val, err := strconv.ParseUint(strVal, 10, 64); err == nil {
		return val
	}
	return defaultVal
}

// GetEnvAsStringArr splits the environment variable at key on commas,
// trimming whitespace and dropping empty entries. Returns defaultVal when
// unset or when no entries remain.
func GetEnvAsStringArr(key string, defaultVal []string) []string {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}

	parts := strings.Split(strVal, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	if len(out) == 0 {
		return defaultVal
	}
	return out
}
