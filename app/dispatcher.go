package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fiffu/fplwatch/config"
	"github.com/fiffu/fplwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// platform selects the sender used for all traffic.
const platform = "twitter"

type Notification struct {
	Recipient        string // platform handle; empty for global broadcasts
	Body             string
	EnsureUnique     bool // salt the body when its text may repeat
	ReplyToMentionID int64
}

func NewDispatcher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, senders senders.Registry) *Dispatcher {
	return &Dispatcher{cfg, log, senders, cfg.DryRun}
}

type Dispatcher struct {
	cfg     *config.Config
	log     *zap.Logger
	senders senders.Registry
	dryRun  bool
}

// Dispatch makes at most one outbound call. Send failures are logged and
// swallowed; a lost notification must never abort a poll cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	body := n.Body
	if n.Recipient != "" {
		body = fmt.Sprintf("@%s %s", n.Recipient, body)
	}

	if d.dryRun {
		d.log.Sugar().Infow("Dry run, skipping post", "body", body, "reply_to", n.ReplyToMentionID)
		return
	}

	if n.EnsureUnique {
		// The platform rejects duplicate bodies from the same account.
		body = fmt.Sprintf("%s (%s)", body, time.Now().UTC().Format("15:04:05.000000"))
	}

	id, err := d.senders[platform].Post(ctx, body, n.ReplyToMentionID)
	if err != nil {
		d.log.Sugar().Warnw("Failed to post notification", "err", err, "body", body)
		return
	}
	d.log.Sugar().Infow("Posted notification", "message_id", id)
}
