package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-l string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-k int      bcrypt cost
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x int      export URL validity, minutes
//	-i int      health check interval, seconds
//	-o bool     print trace spans to stdout (use -o=true)
//	-v string   log level
//
// Arguments are filtered with flagx.FilterArgs first so flags meant for
// other consumers (-c) do not break parsing. Integer durations are
// converted with the unit given above.
func parseFlags(config *Config, osArgs []string) {
	args := flagx.FilterArgs(osArgs,
		"-a", "-l", "-d", "-s", "-t", "-k", "-u", "-p", "-b", "-g", "-e", "-x", "-i", "-o", "-v")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "l", config.EndpointAddrGRPC, "address and port to run the gRPC health service")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token_validity_duration (in hours)")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 export bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	exportValidity := fs.Int("x", int(config.ExportURLValidityDuration.Minutes()), "export_url_validity_duration (in minutes)")
	healthInterval := fs.Int("i", int(config.HealthCheckInterval.Seconds()), "health_check_interval (in seconds)")

	fs.BoolVar(&config.TraceStdout, "o", config.TraceStdout, "print trace spans to stdout")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
	config.ExportURLValidityDuration = time.Duration(*exportValidity) * time.Minute
	config.HealthCheckInterval = time.Duration(*healthInterval) * time.Second
}
