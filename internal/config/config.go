package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shirapay/shirapay/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every configuration value the services read. Only this
// struct must be used to hold configuration; no direct access to env, ini
// or any other config source should be made elsewhere.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"shirapay"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	EventStreamName              string        `env:"EVENT_STREAM_NAME" default:"transactions:events"`
	EventStreamConsumerGroup     string        `env:"EVENT_STREAM_CONSUMER_GROUP" default:"notifier"`
	EventStreamConsumerName      string        `env:"EVENT_STREAM_CONSUMER_NAME" default:"notifier-0"`
	EventStreamMaxRetries        int           `env:"EVENT_STREAM_MAX_RETRIES"`
	EventStreamVisibilityTimeout time.Duration `env:"EVENT_STREAM_VISIBILITY_TIMEOUT"`
	EventStreamPollInterval      time.Duration `env:"EVENT_STREAM_POLL_INTERVAL"`
	EventStreamBatchSize         int64         `env:"EVENT_STREAM_BATCH_SIZE"`
	EventStreamMaxLen            int64         `env:"EVENT_STREAM_MAX_LEN"`

	PaystackBaseURL       string        `env:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	PaystackSecretKey     string        `env:"PAYSTACK_SECRET_KEY"`
	PaystackWebhookSecret string        `env:"PAYSTACK_WEBHOOK_SECRET"`
	PaystackTimeout       time.Duration `env:"PAYSTACK_TIMEOUT" default:"10s"`

	AssistBaseURL string        `env:"ASSIST_BASE_URL"`
	AssistAPIKey  string        `env:"ASSIST_API_KEY"`
	AssistTimeout time.Duration `env:"ASSIST_TIMEOUT" default:"15s"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
