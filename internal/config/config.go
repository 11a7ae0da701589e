// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is the session token lifetime used when none is configured.
const DefaultTokenTTL = 12000 * time.Minute

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address" env:"SERVER_ADDRESS"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`

	// Config is the path to the Config file.
	Config string `json:"-" env:"CONFIG"`

	// JWTSecret is the key session tokens are signed with.
	JWTSecret string `json:"jwt_secret" env:"JWT_SECRET"`

	// TokenTTL is the lifetime of issued session tokens.
	TokenTTL time.Duration `json:"-" env:"TOKEN_TTL"`

	// BcryptCost is the password hashing work factor.
	BcryptCost int `json:"bcrypt_cost" env:"BCRYPT_COST"`

	// LogLevel is the minimum zap level to emit.
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `json:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `json:"tls_key_file" env:"TLS_KEY_FILE"`
}

// Parse parses the process flags and environment and exits on error.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:], env.ToMap(os.Environ()))
	if err != nil {
		log.Fatalf("error while parsing config: %v", err)
	}
	return opts
}

// ParseArgs builds Options from command-line args, then the JSON config
// file if it exists, then the given environment. Later sources win.
func ParseArgs(args []string, environ map[string]string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.JWTSecret, "secret", "", "token signing secret")
	fs.DurationVar(&options.TokenTTL, "ttl", DefaultTokenTTL, "session token lifetime")
	fs.IntVar(&options.BcryptCost, "bcrypt-cost", bcrypt.DefaultCost, "bcrypt work factor")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.TLSCertFile, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKeyFile, "tls-key", "", "TLS private key file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envOpts := env.Options{Environment: environ}

	// CONFIG has to be known before the file is read.
	var location struct {
		Config string `env:"CONFIG"`
	}
	if err := env.ParseWithOptions(&location, envOpts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if location.Config != "" {
		options.Config = location.Config
	}

	if err := loadFile(options); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(options, envOpts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return options, nil
}

func loadFile(options *Options) error {
	if options.Config == "" {
		return nil
	}
	if _, err := os.Stat(options.Config); err != nil {
		return nil
	}

	data, err := os.ReadFile(options.Config)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, options); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	var extra struct {
		TokenTTL string `json:"token_ttl"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	if extra.TokenTTL != "" {
		ttl, err := time.ParseDuration(extra.TokenTTL)
		if err != nil {
			return fmt.Errorf("invalid token_ttl in config file: %w", err)
		}
		options.TokenTTL = ttl
	}
	return nil
}

// Validate reports every setting the server cannot start with.
func (o *Options) Validate() error {
	var errs []error
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if o.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", o.TokenTTL))
	}
	if o.BcryptCost < bcrypt.MinCost || o.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, o.BcryptCost))
	}
	if (o.TLSCertFile == "") != (o.TLSKeyFile == "") {
		errs = append(errs, errors.New("tls cert and key must be set together"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether the server should listen with HTTPS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCertFile != "" && o.TLSKeyFile != ""
}
