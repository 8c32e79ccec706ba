package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env            string `env:"ENVIRONMENT"`
	DryRun         bool   `env:"DRY_RUN" envDefault:"true"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"fplwatch.sqlite"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`

	PollIntervalSecs int    `env:"POLL_INTERVAL_SECS" envDefault:"60"`
	FPLBaseURL       string `env:"FPL_BASE_URL" envDefault:"https://fantasy.premierleague.com/api"`

	Twitter struct {
		BaseURL        string `env:"TWITTER_BASE_URL" envDefault:"https://api.twitter.com"`
		ConsumerKey    string `env:"TWITTER_CONSUMER_KEY"`
		ConsumerSecret string `env:"TWITTER_CONSUMER_SECRET"`
		AccessToken    string `env:"TWITTER_ACCESS_TOKEN"`
		AccessSecret   string `env:"TWITTER_ACCESS_SECRET"`
		BotHandle      string `env:"TWITTER_BOT_HANDLE"`
		TimeoutSecs    int    `env:"TWITTER_TIMEOUT_SECS" envDefault:"10"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		log.Sugar().Panicf("failed to parse config from environment: %v", err)
	}

	creds, err := cfg.parseCreds()
	if err != nil {
		if cfg.Env != "production" {
			cfg.log.Sugar().Infof("%s (operational API auth is disabled)", err)
		} else {
			cfg.log.Sugar().Panic(err)
		}
	}
	cfg.creds = creds

	return cfg
}

func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalSecs) * time.Second
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, errors.New("BASIC_AUTH_CREDS envvar must be populated")
	}

	creds := strings.Split(cfg.BasicAuthCreds, ",")
	if len(creds) == 0 {
		return nil, errors.New("BASIC_AUTH_CREDS envvar should be filled with comma-separated values -- user1:pass1,user2:pass2")
	}

	result := make(map[string]string)
	for _, cred := range creds {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
