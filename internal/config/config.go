package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// TokenEnv ist die Umgebungsvariable, aus der das Timing API Token gelesen wird.
const TokenEnv = "TIMING_TOKEN"

type Config struct {
	TimingToken string
	// Timeout gilt für jeden einzelnen HTTP-Request.
	Timeout time.Duration
	// RateLimit in Requests pro Sekunde, 0 = unbegrenzt.
	RateLimit  float64
	OutputFile string
	Verbose    bool
}

func NewConfig() (*Config, error) {
	// .env laden (ignoriere Fehler wenn Datei nicht existiert)
	if os.Getenv("GODOTENV_DISABLE") == "" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "⚠️  Warnung beim Laden der .env: %v\n", err)
		}
	}

	cfg := &Config{
		TimingToken: getEnv(TokenEnv, ""),
		Timeout:     getDurationEnv("TIMING_TIMEOUT", 30*time.Second),
		RateLimit:   getFloatEnv("TIMING_RATE_LIMIT", 0),
		OutputFile:  getEnv("OUTPUT_FILE", ""),
		Verbose:     getBoolEnv("VERBOSE", false),
	}

	if cfg.Verbose {
		cfg.printDebugInfo()
	}

	return cfg, nil
}

func (c *Config) printDebugInfo() {
	fmt.Fprintf(os.Stderr, "🔧 Configuration loaded:\n")
	fmt.Fprintf(os.Stderr, "   Timing API: %s\n", c.GetTimingBaseURL())
	fmt.Fprintf(os.Stderr, "   Has Timing Token: %t (length: %d)\n",
		c.TimingToken != "", len(c.TimingToken))
	fmt.Fprintf(os.Stderr, "   Timeout: %s\n", c.Timeout)
	if c.RateLimit > 0 {
		fmt.Fprintf(os.Stderr, "   Rate Limit: %.2f req/s\n", c.RateLimit)
	}
	if c.OutputFile != "" {
		fmt.Fprintf(os.Stderr, "   Output File: %s\n", c.OutputFile)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.TimingToken == "" {
		return fmt.Errorf("Timing Token fehlt (%s)", TokenEnv)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout darf nicht negativ sein (TIMING_TIMEOUT)")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate Limit darf nicht negativ sein (TIMING_RATE_LIMIT)")
	}
	return nil
}

func (c *Config) GetTimingBaseURL() string {
	return "https://web.timingapp.com/api/v1"
}
