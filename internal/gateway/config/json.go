package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
	"github.com/dmitrijs2005/authbridge/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "2m" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddr         string         `json:"endpoint_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	AccessTokenValidity  timex.Duration `json:"access_token_validity"`
	IamBaseURL           string         `json:"iam_base_url"`
	IamTimeout           timex.Duration `json:"iam_timeout"`
	CookieSecure         bool           `json:"cookie_secure"`
	SessionSweepInterval timex.Duration `json:"session_sweep_interval"`
	LoginRatePerMinute   int            `json:"login_rate_per_minute"`
	LoginRateBurst       int            `json:"login_rate_burst"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags;
// if neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidity = time.Duration(c.AccessTokenValidity.Duration)
	config.IamBaseURL = c.IamBaseURL
	config.IamTimeout = time.Duration(c.IamTimeout.Duration)
	config.CookieSecure = c.CookieSecure
	config.SessionSweepInterval = time.Duration(c.SessionSweepInterval.Duration)
	config.LoginRatePerMinute = c.LoginRatePerMinute
	config.LoginRateBurst = c.LoginRateBurst
}
