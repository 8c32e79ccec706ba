package senders

import (
	"context"
	"net/http"

	"github.com/fiffu/fplwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Mention is an inbound message addressed to the bot's account.
type Mention struct {
	ID           int64
	Text         string
	AuthorHandle string
}

type Sender interface {
	// Post publishes body, optionally as a reply when replyToID is non-zero.
	// The platform may reject duplicate bodies from the same account.
	Post(ctx context.Context, body string, replyToID int64) (string, error)

	// Mentions returns inbound mentions strictly newer than sinceID, oldest
	// first. A zero sinceID fetches from the beginning of the feed.
	Mentions(ctx context.Context, sinceID int64) ([]Mention, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return map[string]Sender{
		"twitter": newTwitterSender(base),
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
