package app

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/fiffu/fplwatch/senders"
)

// NextCursor is the highest mention id already processed, derived from the
// subscription rows. False when no rows exist yet, meaning fetch the feed
// from the beginning.
func (m *SubscriptionManager) NextCursor(ctx context.Context) (int64, bool, error) {
	var row struct{ Cursor sql.NullInt64 }
	err := m.db.WithContext(ctx).
		Model(&Subscription{}).
		Select("MAX(mention_id) AS cursor").
		Scan(&row).Error
	if err != nil {
		return 0, false, err
	}
	return row.Cursor.Int64, row.Cursor.Valid, nil
}

// ProcessMentions drains the inbound feed past the cursor and applies any
// stop or enrolment commands it finds. A mention that is neither is left
// unrecorded; it will be re-scanned harmlessly until the cursor passes it.
func (m *SubscriptionManager) ProcessMentions(ctx context.Context) error {
	cursor, _, err := m.NextCursor(ctx)
	if err != nil {
		return err
	}

	mentions, err := m.senders[platform].Mentions(ctx, cursor)
	if err != nil {
		return err
	}

	for _, mention := range mentions {
		if err := m.classify(ctx, mention); err != nil {
			return err
		}
	}
	return nil
}

// classify applies both command checks independently; a single mention may
// trigger a stop and an enrolment. Stop runs first.
func (m *SubscriptionManager) classify(ctx context.Context, mention senders.Mention) error {
	if containsStop(mention.Text) {
		if err := m.Remove(ctx, mention.AuthorHandle, mention.ID); err != nil {
			return err
		}
	}

	if enrol, ok := m.validateMention(ctx, mention.Text); ok {
		if err := m.Add(ctx, mention.AuthorHandle, enrol.teamID, mention.ID, enrol.teamName); err != nil {
			return err
		}
	}
	return nil
}

func containsStop(text string) bool {
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if token == "stop" {
			return true
		}
	}
	return false
}

type enrolment struct {
	teamID   int64
	teamName string
}

// validateMention parses "@bot <team_id>" requests. The feed is public and
// full of garbage, so anything unparseable is dropped without comment.
func (m *SubscriptionManager) validateMention(ctx context.Context, text string) (enrolment, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return enrolment{}, false
	}

	teamID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		m.log.Sugar().Debugw("Ignoring mention with non-numeric team id", "token", fields[1])
		return enrolment{}, false
	}

	team, err := m.provider.Team(ctx, teamID)
	if err != nil {
		m.log.Sugar().Infow("Ignoring mention with unresolvable team id", "team_id", teamID, "err", err)
		return enrolment{}, false
	}
	return enrolment{teamID, team.Name}, true
}
