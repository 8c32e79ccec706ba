package app

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/fiffu/fplwatch/config"
	"github.com/fiffu/fplwatch/fpl"
	"github.com/fiffu/fplwatch/senders"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&PlayerNews{}, &Subscription{}))
	return db
}

func mustTime(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return &parsed
}

type fakeSender struct {
	posts    []string
	replyIDs []int64
	mentions []senders.Mention
	postErr  error
}

func (f *fakeSender) Post(ctx context.Context, body string, replyToID int64) (string, error) {
	if f.postErr != nil {
		return "", f.postErr
	}
	f.posts = append(f.posts, body)
	f.replyIDs = append(f.replyIDs, replyToID)
	return strconv.Itoa(len(f.posts)), nil
}

func (f *fakeSender) Mentions(ctx context.Context, sinceID int64) ([]senders.Mention, error) {
	var newer []senders.Mention
	for _, m := range f.mentions {
		if m.ID > sinceID {
			newer = append(newer, m)
		}
	}
	return newer, nil
}

type fakeProvider struct {
	players    fpl.Players
	playersErr error
	teams      map[int64]*fpl.Team
	picks      map[int64][]fpl.Pick
}

func (f *fakeProvider) Players(ctx context.Context) (fpl.Players, error) {
	return f.players, f.playersErr
}

func (f *fakeProvider) Team(ctx context.Context, teamID int64) (*fpl.Team, error) {
	team, ok := f.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %d not found", teamID)
	}
	return team, nil
}

func (f *fakeProvider) Picks(ctx context.Context, team *fpl.Team, gw int) ([]fpl.Pick, error) {
	return f.picks[team.ID], nil
}

type fixture struct {
	db         *gorm.DB
	sender     *fakeSender
	provider   *fakeProvider
	detector   *Detector
	dispatcher *Dispatcher
	subs       *SubscriptionManager
	watcher    *Watcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zap.NewNop()
	cfg := &config.Config{DryRun: false, PollIntervalSecs: 60}
	db := newTestDB(t)

	sender := &fakeSender{}
	registry := senders.Registry{"twitter": sender}
	provider := &fakeProvider{
		teams: map[int64]*fpl.Team{},
		picks: map[int64][]fpl.Pick{},
	}

	detector := &Detector{log, db}
	dispatcher := &Dispatcher{cfg, log, registry, cfg.DryRun}
	subs := &SubscriptionManager{cfg, log, db, provider, dispatcher, registry}
	watcher := &Watcher{cfg, log, nil, provider, detector, subs, dispatcher, cfg.PollInterval(), nil}

	return &fixture{db, sender, provider, detector, dispatcher, subs, watcher}
}
