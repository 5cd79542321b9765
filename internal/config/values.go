package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// values resolves a setting from the process environment first and the
// config file second.
type values struct {
	file map[string]string
}

func (v values) get(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value := strings.TrimSpace(v.file[name]); value != "" {
		return value
	}
	return defaultValue
}

func (v values) getInt(name string, defaultValue int) int {
	raw := v.get(name, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", name).Str("value", raw).Msg("config: not an integer, using default")
		return defaultValue
	}
	return n
}

func (v values) getFloat(name string, defaultValue float64) float64 {
	raw := v.get(name, "")
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("key", name).Str("value", raw).Msg("config: not a number, using default")
		return defaultValue
	}
	return f
}

func (v values) getDuration(name string, defaultValue time.Duration) time.Duration {
	raw := v.get(name, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", name).Str("value", raw).Msg("config: not a duration, using default")
		return defaultValue
	}
	return d
}

func (v values) getList(name string, defaultValue []string) []string {
	raw := v.get(name, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		out = append(out, part)
	}
	return out
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
