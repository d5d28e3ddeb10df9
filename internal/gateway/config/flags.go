package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
)

// parseFlags populates selected gateway Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3002")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key (shared with IAM)
//	-t int      access token validity, minutes
//	-i string   IAM base URL (e.g., "http://iam:3001/api/v1")
//	-o int      IAM request timeout, seconds
//	-k          set the Secure attribute on cookies
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-i", "-o", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.IamBaseURL, "i", config.IamBaseURL, "IAM base URL")
	fs.BoolVar(&config.CookieSecure, "k", config.CookieSecure, "secure cookies")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidity.Minutes()), "access token validity (in minutes)")
	iamTimeout := fs.Int("o", int(config.IamTimeout.Seconds()), "IAM request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidity = time.Duration(*accessTokenValidity) * time.Minute
	config.IamTimeout = time.Duration(*iamTimeout) * time.Second
}
