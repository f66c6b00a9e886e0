package config

import (
	"fmt"
	"strconv"
	"time"
)

// Environment variable names. JWT_SECRET is kept unprefixed so deployments
// can share it with other services.
const (
	EnvHTTPAddr       = "KIDSBANK_HTTP_ADDR"
	EnvGRPCAddr       = "KIDSBANK_GRPC_ADDR"
	EnvDatabaseDSN    = "KIDSBANK_DATABASE_DSN"
	EnvJWTSecret      = "JWT_SECRET"
	EnvTokenValidity  = "KIDSBANK_TOKEN_VALIDITY"
	EnvBcryptCost     = "KIDSBANK_BCRYPT_COST"
	EnvS3User         = "KIDSBANK_S3_USER"
	EnvS3Password     = "KIDSBANK_S3_PASSWORD"
	EnvS3Bucket       = "KIDSBANK_S3_BUCKET"
	EnvS3Region       = "KIDSBANK_S3_REGION"
	EnvS3Endpoint     = "KIDSBANK_S3_ENDPOINT"
	EnvExportValidity = "KIDSBANK_EXPORT_URL_VALIDITY"
	EnvHealthInterval = "KIDSBANK_HEALTH_INTERVAL"
	EnvTraceStdout    = "KIDSBANK_TRACE_STDOUT"
	EnvLogLevel       = "KIDSBANK_LOG_LEVEL"
)

// parseEnv overlays values from the environment. lookup has the signature of
// os.LookupEnv. Malformed numeric, boolean or duration values panic, the
// same way a malformed JSON file does.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", key, err))
			}
			*dst = d
		}
	}

	str(EnvHTTPAddr, &config.EndpointAddrHTTP)
	str(EnvGRPCAddr, &config.EndpointAddrGRPC)
	str(EnvDatabaseDSN, &config.DatabaseDSN)
	str(EnvJWTSecret, &config.SecretKey)
	dur(EnvTokenValidity, &config.TokenValidityDuration)
	if v, ok := lookup(EnvBcryptCost); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvBcryptCost, err))
		}
		config.BcryptCost = n
	}
	str(EnvS3User, &config.S3RootUser)
	str(EnvS3Password, &config.S3RootPassword)
	str(EnvS3Bucket, &config.S3Bucket)
	str(EnvS3Region, &config.S3Region)
	str(EnvS3Endpoint, &config.S3BaseEndpoint)
	dur(EnvExportValidity, &config.ExportURLValidityDuration)
	dur(EnvHealthInterval, &config.HealthCheckInterval)
	if v, ok := lookup(EnvTraceStdout); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvTraceStdout, err))
		}
		config.TraceStdout = b
	}
	str(EnvLogLevel, &config.LogLevel)
}
