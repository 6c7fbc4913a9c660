// Package config provides functionality for managing configuration options
// for the server and client using command-line flags, an optional JSON
// config file and environment variables, in that order of precedence
// (environment wins). A .env file in the working directory, when present,
// is loaded into the environment first.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values of the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// LogLevel is the minimum zap level logged.
	LogLevel string `json:"log_level"`

	// RateLimitRPS is the sustained request rate allowed per caller; zero
	// disables rate limiting.
	RateLimitRPS float64 `json:"rate_limit_rps"`

	// RateLimitBurst is the burst size allowed per caller.
	RateLimitBurst int `json:"rate_limit_burst"`

	// TombstoneRetention is how long deleted chat messages are kept.
	TombstoneRetention Duration `json:"tombstone_retention"`

	// CleanupInterval is how often expired tombstones are purged.
	CleanupInterval Duration `json:"cleanup_interval"`

	// TLSCert and TLSKey switch the server to HTTPS. A missing pair is
	// generated self-signed on start.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// ClientOptions holds the configuration values of the interactive client.
type ClientOptions struct {
	// ServerURL is the base URL of the workspace API.
	ServerURL string `json:"server_url"`

	// Token is a session token from a previous registration.
	Token string `json:"session_token"`

	// Login registers a new session when no token is given.
	Login string `json:"login"`

	// Backend selects the remote store: "http" or "memory".
	Backend string `json:"backend"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// LogLevel is the minimum zap level logged.
	LogLevel string `json:"log_level"`

	// RefreshInterval is the period of background refreshes; zero disables
	// them.
	RefreshInterval Duration `json:"refresh_interval"`

	// CAFile is a PEM file of certificates to trust for an HTTPS server.
	CAFile string `json:"ca_file"`

	// RequestTimeout, when set, overrides every per-call repository timeout.
	RequestTimeout Duration `json:"request_timeout"`

	// ShowVersion prints build information and exits.
	ShowVersion bool `json:"-"`
}

// Duration is a time.Duration that reads as a Go duration string in JSON
// config files.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Backends lists the accepted values of ClientOptions.Backend.
var Backends = []string{"http", "memory"}

// ParseServer parses args (without the program name) and the environment
// into server Options.
func ParseServer(args []string) (*Options, error) {
	loadDotEnv()

	options := &Options{
		LogLevel:           "info",
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		TombstoneRetention: Duration(30 * 24 * time.Hour),
		CleanupInterval:    Duration(time.Hour),
	}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS key file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := overlayFile(options.Config, options); err != nil {
		return nil, err
	}

	if cert := os.Getenv("TLS_CERT_FILE"); cert != "" {
		options.TLSCert = cert
	}
	if key := os.Getenv("TLS_KEY_FILE"); key != "" {
		options.TLSKey = key
	}
	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	var err error
	if options.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", options.RateLimitRPS); err != nil {
		return nil, err
	}
	if options.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", options.RateLimitBurst); err != nil {
		return nil, err
	}
	if options.TombstoneRetention, err = envDuration("TOMBSTONE_RETENTION", options.TombstoneRetention); err != nil {
		return nil, err
	}

	if (options.TLSCert == "") != (options.TLSKey == "") {
		return nil, errors.New("TLS needs both a certificate and a key")
	}
	if options.DatabaseDSN == "" {
		return nil, errors.New("database DSN is required (-d or DATABASE_DSN)")
	}
	return options, nil
}

// ParseClient parses args (without the program name) and the environment
// into ClientOptions.
func ParseClient(args []string) (*ClientOptions, error) {
	loadDotEnv()

	options := &ClientOptions{
		LogLevel:        "warn",
		RefreshInterval: Duration(30 * time.Second),
	}
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&options.ServerURL, "url", "http://localhost:8080", "workspace API base URL")
	fs.StringVar(&options.Token, "token", "", "session token")
	fs.StringVar(&options.Login, "login", "", "login to register when no token is given")
	fs.StringVar(&options.Backend, "backend", "http", "remote store: http or memory")
	fs.StringVar(&options.CAFile, "ca", "", "CA certificate to trust for HTTPS")
	fs.StringVar(&options.Config, "config", "client.json", "path to config file")
	fs.StringVar(&options.Config, "c", "client.json", "path to config file (shorthand)")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	fs.BoolVar(&options.ShowVersion, "version", false, "show build version and date")
	fs.Func("refresh", "background refresh period, 0 to disable", func(s string) error {
		return setDuration(&options.RefreshInterval, s)
	})
	fs.Func("timeout", "override every request timeout", func(s string) error {
		return setDuration(&options.RequestTimeout, s)
	})
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := overlayFile(options.Config, options); err != nil {
		return nil, err
	}

	if url := os.Getenv("SERVER_URL"); url != "" {
		options.ServerURL = url
	}
	if token := os.Getenv("SESSION_TOKEN"); token != "" {
		options.Token = token
	}
	if ca := os.Getenv("CA_FILE"); ca != "" {
		options.CAFile = ca
	}
	if backend := os.Getenv("BACKEND"); backend != "" {
		options.Backend = backend
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	var err error
	if options.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", options.RequestTimeout); err != nil {
		return nil, err
	}

	if options.Backend != "http" && options.Backend != "memory" {
		return nil, fmt.Errorf("unknown backend %q (want one of %v)", options.Backend, Backends)
	}
	return options, nil
}

func loadDotEnv() {
	// A missing .env is the common case.
	_ = godotenv.Load(".env")
}

// overlayFile decodes the JSON file at path over dst. A missing file is
// not an error.
func overlayFile(path string, dst any) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func setDuration(dst *Duration, s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = Duration(v)
	return nil
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, def Duration) (Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return Duration(v), nil
}
