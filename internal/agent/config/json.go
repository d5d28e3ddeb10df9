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
// parsing both string values such as "90s" and integer nanoseconds.
type JsonConfig struct {
	GatewayBaseURL   string         `json:"gateway_base_url"`
	RenewalInterval  timex.Duration `json:"renewal_interval"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	FailureThreshold int            `json:"failure_threshold"`
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

	config.GatewayBaseURL = c.GatewayBaseURL
	config.RenewalInterval = time.Duration(c.RenewalInterval.Duration)
	config.RequestTimeout = time.Duration(c.RequestTimeout.Duration)
	config.FailureThreshold = c.FailureThreshold
}
