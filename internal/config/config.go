// v1
// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ecocampus/analyzer/internal/campus"
)

// AppConfig holds runtime configuration for the analyzer service.
type AppConfig struct {
	HTTPBind string // address:port for HTTP server

	// Reasoning Oracle (OpenAI-compatible chat completions endpoint).
	OracleBaseURL     string
	OracleAPIKey      string
	OracleModel       string
	OracleTemperature float64
	OracleTimeout     time.Duration

	// Circuit breaker around the Oracle.
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	// Optional analysis ledger (disabled when no brokers configured).
	KafkaBrokers []string
	LedgerTopic  string

	LayoutPath       string // campus layout JSON (configuration provider)
	ObservationsPath string // optional seed snapshot of current observations
	PropertiesPath   string // optional tunables overriding env defaults

	DefaultDepth campus.Depth
}

// LoadEnvAndFiles reads environment variables and, when present, the
// properties file on top of them.
func LoadEnvAndFiles() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPBind:            getEnv("HTTP_BIND", ":8000"),
		OracleBaseURL:       os.Getenv("ORACLE_BASE_URL"),
		OracleAPIKey:        os.Getenv("ORACLE_API_KEY"),
		OracleModel:         getEnv("ORACLE_MODEL", "llama-3.3-70b-versatile"),
		OracleTemperature:   getEnvFloat("ORACLE_TEMPERATURE", 0.7),
		OracleTimeout:       getEnvDuration("ORACLE_TIMEOUT", 30*time.Second),
		BreakerMaxFailures:  getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout: getEnvDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),
		KafkaBrokers:        splitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		LedgerTopic:         getEnv("LEDGER_TOPIC", "campus.analysis.ledger"),
		LayoutPath:          getEnv("CAMPUS_LAYOUT_PATH", "./configs/campus.json"),
		ObservationsPath:    getEnv("OBSERVATIONS_PATH", ""),
		PropertiesPath:      getEnv("PROPERTIES_PATH", "./configs/analyzer.properties"),
		DefaultDepth:        campus.ParseDepth(getEnv("DEFAULT_BUDGET_LEVEL", "medium")),
	}

	if err := cfg.loadProperties(cfg.PropertiesPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReloadProperties re-reads the properties file.
func (c *AppConfig) ReloadProperties() error {
	return c.loadProperties(c.PropertiesPath)
}

// loadProperties applies key=value overrides from the properties file.
// A missing file is fine; env defaults stay in effect.
func (c *AppConfig) loadProperties(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot open properties file %s: %w", path, err)
	}

	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)

		switch k {
		case "oracle.model":
			c.OracleModel = v
		case "oracle.temperature":
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.OracleTemperature = f
			}
		case "oracle.timeout":
			if d, err := time.ParseDuration(v); err == nil {
				c.OracleTimeout = d
			}
		case "breaker.max_failures":
			if i, err := strconv.Atoi(v); err == nil && i > 0 {
				c.BreakerMaxFailures = i
			}
		case "breaker.reset_timeout":
			if d, err := time.ParseDuration(v); err == nil {
				c.BreakerResetTimeout = d
			}
		case "default.budget_level":
			c.DefaultDepth = campus.ParseDepth(v)
		case "ledger.topic":
			c.LedgerTopic = v
		}
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
