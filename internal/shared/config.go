package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const (
	DriverMySQL  = "mysql"
	DriverFile   = "file"
	DriverMemory = "memory"
)

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"prod"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9100"`

	RequestTimeoutSeconds int `envconfig:"HTTP_TIMEOUT_SECONDS" default:"15"`

	MySQLDSN string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`

	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass       string `envconfig:"REDIS_PASSWORD"`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`
	CacheTTLSeconds int    `envconfig:"CACHE_TTL_SECONDS" default:"900"`

	CatalogDriver string `envconfig:"CATALOG_DRIVER" default:"file"`
	CatalogFile   string `envconfig:"CATALOG_FILE" default:"data/hotels.json"`
	LedgerDriver  string `envconfig:"LEDGER_DRIVER" default:"file"`
	LedgerFile    string `envconfig:"LEDGER_FILE" default:"data/bookings.json"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"booking.exchange"`

	FeedURL       string `envconfig:"CATALOG_FEED_URL"`
	FeedKey       string `envconfig:"CATALOG_FEED_KEY"`
	ImportWorkers int    `envconfig:"IMPORT_WORKERS" default:"8"`
	ImportRPS     int    `envconfig:"IMPORT_RPS" default:"5"`

	BookingRPS   float64 `envconfig:"BOOKING_RPS" default:"5"`
	BookingBurst int     `envconfig:"BOOKING_BURST" default:"10"`
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load reads the process environment. Callers load .env first if they want one.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	c.CatalogDriver = strings.ToLower(strings.TrimSpace(c.CatalogDriver))
	c.LedgerDriver = strings.ToLower(strings.TrimSpace(c.LedgerDriver))

	switch c.CatalogDriver {
	case DriverMySQL, DriverFile:
	default:
		return Config{}, fmt.Errorf("CATALOG_DRIVER must be mysql or file, got %q", c.CatalogDriver)
	}
	switch c.LedgerDriver {
	case DriverMySQL, DriverFile, DriverMemory:
	default:
		return Config{}, fmt.Errorf("LEDGER_DRIVER must be mysql, file or memory, got %q", c.LedgerDriver)
	}
	if c.ImportWorkers < 1 {
		c.ImportWorkers = 1
	}
	if c.LedgerDriver == DriverMemory {
		log.Warn().Msg("LEDGER_DRIVER=memory: bookings are lost on restart")
	}
	return c, nil
}

// NeedsMySQL reports whether any configured store lives in MySQL.
func (c Config) NeedsMySQL() bool {
	return c.CatalogDriver == DriverMySQL || c.LedgerDriver == DriverMySQL
}
