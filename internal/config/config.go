package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConf      `yaml:"redis"`
	Store    StoreConfig    `yaml:"store"`
	SNS      SNSConfig      `yaml:"sns"`
	JWT      JWTConfig      `yaml:"jwt"`
}

type HTTPConfig struct {
	Host    string        `yaml:"host" env:"HTTP_HOST"`
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN" env-required:"true"`
	// Migrate applies embedded migrations on startup.
	Migrate bool `yaml:"migrations" env:"POSTGRES_MIGRATE" env-default:"true"`
}

type RedisConf struct {
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env-default:"5m"`
	DedupTTL      time.Duration `yaml:"dedup_ttl" env-default:"24h"`
}

type StoreConfig struct {
	// WriteMode is last_write_wins or versioned.
	WriteMode string `yaml:"write_mode" env:"STORE_WRITE_MODE" env-default:"last_write_wins"`
}

type SNSConfig struct {
	Region       string        `yaml:"region" env:"AWS_REGION" env-default:"eu-west-1"`
	Profile      string        `yaml:"profile" env:"AWS_PROFILE"`
	TopicARNs    []string      `yaml:"topic_arns" env:"SNS_TOPIC_ARNS" env-separator:","`
	CertCacheTTL time.Duration `yaml:"cert_cache_ttl" env-default:"1h"`
}

type JWTConfig struct {
	Secret string `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
