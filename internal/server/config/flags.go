package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
)

// serverFlags lists every flag parseFlags understands.
var serverFlags = []string{"-a", "-d", "-s", "-i", "-n", "-t", "-r", "-k", "-w", "-u", "-p", "-b", "-g", "-e", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-i string   JWT issuer
//	-n string   JWT audience
//	-t int      access token validity, minutes
//	-r int      reset token validity, minutes
//	-k int      bcrypt cost
//	-w int      concurrent password hashing workers
//	-u string   S3 user
//	-p string   S3 password
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-l string   log level
//
// Durations are given in whole minutes and only override the current value
// when the flag is present, so a sub-minute value from JSON or the
// environment survives an absent flag.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "JWT issuer")
	fs.StringVar(&config.TokenAudience, "n", config.TokenAudience, "JWT audience")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	resetMinutes := fs.Int("r", int(config.ResetTokenValidityDuration.Minutes()), "reset token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.HashWorkers, "w", config.HashWorkers, "concurrent password hashing workers")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.ResetTokenValidityDuration = time.Duration(*resetMinutes) * time.Minute
		}
	})

	return nil
}
