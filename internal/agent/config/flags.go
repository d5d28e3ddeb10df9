package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
)

// parseFlags populates selected agent Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-g string   gateway base URL (e.g., "http://localhost:3002/api/v1")
//	-n int      renewal interval, seconds
//	-o int      request timeout, seconds
//	-f int      consecutive transient failures before a session re-check
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-g", "-n", "-o", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.GatewayBaseURL, "g", config.GatewayBaseURL, "gateway base URL")
	fs.IntVar(&config.FailureThreshold, "f", config.FailureThreshold, "failure threshold")

	renewalInterval := fs.Int("n", int(config.RenewalInterval.Seconds()), "renewal interval (in seconds)")
	requestTimeout := fs.Int("o", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RenewalInterval = time.Duration(*renewalInterval) * time.Second
	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
