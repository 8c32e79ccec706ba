package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/fplwatch/app"
	"github.com/fiffu/fplwatch/config"
	"github.com/fiffu/fplwatch/fpl"
	"github.com/fiffu/fplwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewCache),
		fx.Provide(app.NewTransport),
		fx.Provide(func(c *app.Cache) fpl.Cache { return c }),
		fx.Provide(fpl.NewClient),
		fx.Provide(func(c *fpl.Client) app.Provider { return c }),
		fx.Provide(app.NewDetector),
		fx.Provide(app.NewDispatcher),
		fx.Provide(app.NewSubscriptionManager),
		fx.Provide(app.NewWatcher),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*app.Watcher) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
