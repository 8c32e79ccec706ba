package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiffu/fplwatch/config"
	"github.com/fiffu/fplwatch/fpl"
	"github.com/fiffu/fplwatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Provider is the read-only FPL data source.
type Provider interface {
	Players(ctx context.Context) (fpl.Players, error)
	Team(ctx context.Context, teamID int64) (*fpl.Team, error)
	Picks(ctx context.Context, team *fpl.Team, gw int) ([]fpl.Pick, error)
}

func NewSubscriptionManager(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	provider Provider,
	dispatcher *Dispatcher,
	senders senders.Registry,
) *SubscriptionManager {
	return &SubscriptionManager{cfg, log, db, provider, dispatcher, senders}
}

type SubscriptionManager struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *gorm.DB
	provider   Provider
	dispatcher *Dispatcher
	senders    senders.Registry
}

// IsSubscribed resolves a handle's state from its most recent row. History
// rows are never deleted, so only the newest row counts.
func (m *SubscriptionManager) IsSubscribed(ctx context.Context, handle string) (uint, bool, error) {
	var sub Subscription
	err := m.db.WithContext(ctx).
		Where("handle = ?", handle).
		Order("created_at desc, id desc").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !sub.Subscribed {
		return 0, false, nil
	}
	return sub.ID, true, nil
}

// Add enrols a handle against a fantasy team. A no-op while the handle is
// already subscribed; re-enrolment after a cancel inserts a fresh row.
func (m *SubscriptionManager) Add(ctx context.Context, handle string, teamID, mentionID int64, teamName string) error {
	if _, ok, err := m.IsSubscribed(ctx, handle); err != nil {
		return err
	} else if ok {
		m.log.Sugar().Infow("Already subscribed, ignoring", "handle", handle, "team_id", teamID)
		return nil
	}

	sub := Subscription{Subscribed: true, Handle: handle, TeamID: teamID, MentionID: mentionID}
	if err := m.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return err
	}
	m.log.Sugar().Infow("Subscribed", "handle", handle, "team_id", teamID, "subscription_id", sub.ID)

	m.dispatcher.Dispatch(ctx, Notification{
		Recipient:        handle,
		Body:             fmt.Sprintf("You are now subscribed to player news for %s. Reply 'stop' to unsubscribe.", teamName),
		EnsureUnique:     true,
		ReplyToMentionID: mentionID,
	})
	return nil
}

// Remove cancels a handle's active subscription. The active row is flipped
// in place and records the stop mention, keeping the cursor monotone.
func (m *SubscriptionManager) Remove(ctx context.Context, handle string, mentionID int64) error {
	id, ok, err := m.IsSubscribed(ctx, handle)
	if err != nil {
		return err
	}
	if !ok {
		m.log.Sugar().Infow("Not subscribed, ignoring stop", "handle", handle)
		return nil
	}

	tx := m.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("id = ?", id).
		Updates(map[string]any{"subscribed": false, "mention_id": mentionID})
	if err := tx.Error; err != nil {
		return err
	}
	m.log.Sugar().Infow("Unsubscribed", "handle", handle, "subscription_id", id)

	m.dispatcher.Dispatch(ctx, Notification{
		Recipient:        handle,
		Body:             "You have been unsubscribed from player news.",
		EnsureUnique:     true,
		ReplyToMentionID: mentionID,
	})
	return nil
}

// Active returns every subscription whose handle's most recent row is still
// subscribed.
func (m *SubscriptionManager) Active(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	err := m.db.WithContext(ctx).
		Where("id IN (SELECT MAX(id) FROM subscriptions WHERE deleted_at IS NULL GROUP BY handle)").
		Where("subscribed = ?", true).
		Find(&subs).Error
	return subs, err
}
