package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/cryptnotes/internal/flagx"
)

// parseFlags applies command-line overrides:
//
//	-a  gRPC bind address          -w  ops HTTP bind address
//	-d  database DSN               -s  secret key
//	-i  session idle timeout       -m  session max lifetime
//	-l  log mode
//	-b  S3 bucket  -r  S3 region  -e  S3 endpoint  -u  S3 access key  -p  S3 secret key
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-w", "-d", "-s", "-i", "-m", "-l", "-b", "-r", "-e", "-u", "-p"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "gRPC bind address")
	fs.StringVar(&cfg.EndpointAddrHTTP, "w", cfg.EndpointAddrHTTP, "ops HTTP bind address")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN (postgres:// or SQLite path)")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.DurationVar(&cfg.SessionIdleTimeout, "i", cfg.SessionIdleTimeout, "session idle timeout")
	fs.DurationVar(&cfg.SessionMaxLifetime, "m", cfg.SessionMaxLifetime, "session max lifetime")
	fs.StringVar(&cfg.LogMode, "l", cfg.LogMode, "log mode (development|production)")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 export bucket")
	fs.StringVar(&cfg.S3Region, "r", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")

	return fs.Parse(args)
}
