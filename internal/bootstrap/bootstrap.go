// Package bootstrap builds the process-wide collaborators both services share.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/config"
	"github.com/cuongbtq/screenshot-service/internal/storage"
	"github.com/cuongbtq/screenshot-service/shared/logger"
	"github.com/cuongbtq/screenshot-service/shared/postgresql"
	"github.com/cuongbtq/screenshot-service/shared/rabbitmq"
	"github.com/cuongbtq/screenshot-service/shared/sqlite"
	"github.com/jmoiron/sqlx"
)

// InitLogger initializes and configures the application logger
func InitLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// InitStorage opens the configured database and returns the job store on top of it.
// The closer releases the database connection.
func InitStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage.Storage, io.Closer, error) {
	var (
		db     *sqlx.DB
		closer io.Closer
	)

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		client, err := sqlite.NewClient(&sqlite.Config{Path: cfg.Storage.SQLitePath}, log)
		if err != nil {
			return nil, nil, err
		}
		db, closer = client.GetDB(), client
	default:
		client, err := postgresql.NewClient(&postgresql.Config{
			URL:             cfg.Database.URL,
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnectRetries:  cfg.Database.ConnectRetries,
			RetryInterval:   cfg.Database.RetryInterval,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		db, closer = client.GetDB(), client
	}

	store, err := storage.NewStorage(db, cfg.Storage.Table, log)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}

	if cfg.Storage.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			closer.Close()
			return nil, nil, err
		}
	}

	return store, closer, nil
}

// RabbitMQConfig maps the file configuration onto the client configuration
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		URL:                cfg.URL,
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		VisibilityTimeout:  cfg.Queue.VisibilityTimeout,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		ConfirmPublish:     cfg.Publish.Confirm,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
		PrefetchCount:      cfg.Consumer.PrefetchCount,
	}
}

// InitRabbitMQ initializes the RabbitMQ client
func InitRabbitMQ(cfg *config.RabbitMQConfig, log *slog.Logger) (*rabbitmq.Client, error) {
	client, err := rabbitmq.NewClient(RabbitMQConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	return client, nil
}

// LoadConfig reads the file, applies environment overrides and validates with validate
func LoadConfig(path string, validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
