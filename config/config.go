// Package config loads the service configuration from the environment and
// provides tuned database connection constructors.
package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime configuration of the circulation service.
// All values come from environment variables; sensible defaults exist for
// everything except the addresses of the external systems.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	PostgresDSN string `env:"POSTGRES_DSN,required"`
	LoansTable  string `env:"LOANS_TABLE" envDefault:"loans"`

	CatalogBaseURL string        `env:"CATALOG_BASE_URL,required"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"3s"`

	AMQPURL        string `env:"AMQP_URL,required"`
	AMQPExchange   string `env:"AMQP_EXCHANGE" envDefault:"notification.exchange"`
	AMQPRoutingKey string `env:"AMQP_ROUTING_KEY" envDefault:"notification.routingkey"`

	KafkaBrokers []string `env:"KAFKA_BROKERS,required" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"loan-closed"`

	// LoanPeriod is how long an opened loan runs until its due date.
	LoanPeriod time.Duration `env:"LOAN_PERIOD" envDefault:"336h"`
}

// ErrLoadingConfigFailed is returned when the environment is missing required
// values or holds values that can not be parsed.
var ErrLoadingConfigFailed = errors.New("loading configuration failed")

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrLoadingConfigFailed, err)
	}

	return cfg, nil
}
