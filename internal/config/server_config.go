package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/subosito/gotenv"

	"github/chapool/go-chapay/internal/util"
)

var dotEnvOnce sync.Once

// Database configures the sponsorship ledger connection.
type Database struct {
	Enabled          bool
	Host             string
	Port             int
	Username         string
	Password         string `json:"-"`
	Database         string
	AdditionalParams map[string]string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ConnectionString builds a lib/pq style DSN.
func (c Database) ConnectionString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "host=%s port=%d user=%s password=%s dbname=%s", c.Host, c.Port, c.Username, c.Password, c.Database)

	keys := make([]string, 0, len(c.AdditionalParams))
	for k := range c.AdditionalParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, c.AdditionalParams[k])
	}

	return b.String()
}

// EchoServer configures the HTTP layer of the relay daemon.
type EchoServer struct {
	Debug                         bool
	ListenAddress                 string
	EnableCORSMiddleware          bool
	EnableLoggerMiddleware        bool
	EnableRecoverMiddleware       bool
	EnableRequestIDMiddleware     bool
	EnableTrailingSlashMiddleware bool
}

// LoggerServer configures zerolog.
type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogRequestHeader   bool
	LogRequestQuery    bool
	PrettyPrintConsole bool
}

// Management configures the authenticated management endpoints.
type Management struct {
	Secret string `json:"-"`
}

// Relay configures sponsorship handling: the upstream node, the sponsor key
// and the countersigning policy.
type Relay struct {
	UpstreamURL        string
	ChainID            uint64
	KeystorePath       string
	KeystorePassphrase string `json:"-"`
	UseDevKey          bool
	EnableSponsorship  bool
	AllowedFeeTokens   []string
	RequireFeeToken    bool
	MaxGas             uint64
	MaxFeePerGas       string
	DailySponsorCap    int
}

// NATS configures the optional sponsorship event publisher.
type NATS struct {
	Enabled bool
	URL     string
	Subject string
}

// Server is the full relay daemon configuration, assembled from the
// environment.
type Server struct {
	Database   Database
	Echo       EchoServer
	Logger     LoggerServer
	Management Management
	Relay      Relay
	NATS       NATS
}

// DefaultServiceConfigFromEnv assembles the configuration from the
// environment, loading a .env.local file once if present.
func DefaultServiceConfigFromEnv() Server {
	dotEnvOnce.Do(func() {
		// Intentionally ignored, the file is optional.
		_ = gotenv.Load(".env.local")
	})

	return Server{
		Database: Database{
			Enabled:  util.GetEnvAsBool("RELAY_DB_ENABLED", false),
			Host:     util.GetEnv("PGHOST", "postgres"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Username: util.GetEnv("PGUSER", "chapay"),
			Password: util.GetEnv("PGPASSWORD", ""),
			Database: util.GetEnv("PGDATABASE", "chapay"),
			AdditionalParams: map[string]string{
				"sslmode": util.GetEnv("PGSSLMODE", "disable"),
			},
			MaxOpenConns:    util.GetEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    util.GetEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Second * time.Duration(util.GetEnvAsInt("DB_CONN_MAX_LIFETIME_SEC", 300)),
		},
		Echo: EchoServer{
			Debug:                         util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress:                 util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8560"),
			EnableCORSMiddleware:          util.GetEnvAsBool("SERVER_ECHO_ENABLE_CORS_MIDDLEWARE", true),
			EnableLoggerMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
			EnableRecoverMiddleware:       util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:     util.GetEnvAsBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableTrailingSlashMiddleware: util.GetEnvAsBool("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE", true),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", "info")),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", "debug")),
			LogRequestBody:     util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_BODY", false),
			LogRequestHeader:   util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_HEADER", false),
			LogRequestQuery:    util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_QUERY", false),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Management: Management{
			Secret: util.GetEnv("SERVER_MANAGEMENT_SECRET", "mgmtpass"),
		},
		Relay: Relay{
			UpstreamURL:        util.GetEnv("RELAY_UPSTREAM_URL", "http://localhost:8545"),
			ChainID:            util.GetEnvAsUint64("RELAY_CHAIN_ID", 1337),
			KeystorePath:       util.GetEnv("RELAY_KEYSTORE_PATH", ""),
			KeystorePassphrase: util.GetEnv("RELAY_KEYSTORE_PASSPHRASE", ""),
			UseDevKey:          util.GetEnvAsBool("RELAY_USE_DEV_KEY", true),
			EnableSponsorship:  util.GetEnvAsBool("RELAY_ENABLE_SPONSORSHIP", true),
			AllowedFeeTokens:   util.GetEnvAsStringArr("RELAY_ALLOWED_FEE_TOKENS", nil),
			RequireFeeToken:    util.GetEnvAsBool("RELAY_REQUIRE_FEE_TOKEN", false),
			MaxGas:             util.GetEnvAsUint64("RELAY_MAX_GAS", 0),
			MaxFeePerGas:       util.GetEnv("RELAY_MAX_FEE_PER_GAS", ""),
			DailySponsorCap:    util.GetEnvAsInt("RELAY_DAILY_SPONSOR_CAP", 0),
		},
		NATS: NATS{
			Enabled: util.GetEnvAsBool("NATS_ENABLED", false),
			URL:     util.GetEnv("NATS_URL", "nats://localhost:4222"),
			Subject: util.GetEnv("NATS_SUBJECT", "chapay.sponsorship"),
		},
	}
}
