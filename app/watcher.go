package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fiffu/fplwatch/config"
	"github.com/fiffu/fplwatch/fpl"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewWatcher(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	shutdowner fx.Shutdowner,
	provider Provider,
	detector *Detector,
	subs *SubscriptionManager,
	dispatcher *Dispatcher,
) *Watcher {
	watcher := &Watcher{
		cfg, log, shutdowner,
		provider, detector, subs, dispatcher,
		cfg.PollInterval(), nil,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go watcher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop watcher")
			watcher.Stop()
			return nil
		},
	})

	return watcher
}

// Watcher runs the poll loop: one subscription phase, one news phase, then
// sleep. Phases within a cycle are strictly sequential and no two cycles
// overlap.
type Watcher struct {
	cfg        *config.Config
	log        *zap.Logger
	shutdowner fx.Shutdowner

	provider   Provider
	detector   *Detector
	subs       *SubscriptionManager
	dispatcher *Dispatcher

	interval time.Duration
	cancel   context.CancelFunc
}

func (w *Watcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.RunCycle(ctx); err != nil {
			// Fail stop: surface the failure and let the lifecycle hooks
			// release the db, cache and transport on the way out.
			w.log.Sugar().Errorw("Cycle failed, shutting down", "err", err)
			w.shutdowner.Shutdown()
			return
		}

		select {
		case <-ctx.Done():
			w.log.Sugar().Info("Watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watcher) RunCycle(ctx context.Context) error {
	log := w.log.Sugar().With("cycle_id", uuid.NewString())
	started := time.Now().UTC()
	log.Info("Cycle starting")

	if err := w.subs.ProcessMentions(ctx); err != nil {
		return fmt.Errorf("subscription phase: %w", err)
	}

	m, err := w.runNewsPhase(ctx)
	if err != nil {
		return fmt.Errorf("news phase: %w", err)
	}

	elapsed := time.Now().UTC().Sub(started)
	log.Infow("Cycle completed",
		"elapsed_msecs", int(elapsed.Milliseconds()),
		"players", m.players, "notified", m.notified,
		"unchanged", m.unchanged, "picks_skipped", m.picksSkipped,
	)
	return nil
}

type cycleMetrics struct {
	players      int
	notified     int
	unchanged    int
	picksSkipped int
}

func (m *cycleMetrics) Add(other *cycleMetrics) {
	m.notified += other.notified
	m.unchanged += other.unchanged
	m.picksSkipped += other.picksSkipped
}

func (w *Watcher) runNewsPhase(ctx context.Context) (*cycleMetrics, error) {
	players, err := w.provider.Players(ctx)
	if err != nil {
		return nil, err
	}

	m := &cycleMetrics{players: len(players)}
	for _, player := range players {
		decision, err := w.detector.UpdateNews(ctx, player.ID, ObservedNews{player.News, player.NewsAdded}, nil)
		if err != nil {
			return m, err
		}
		if decision == New {
			w.dispatcher.Dispatch(ctx, Notification{Body: globalBody(player)})
			m.notified++
		} else {
			m.unchanged++
		}
	}

	active, err := w.subs.Active(ctx)
	if err != nil {
		return m, err
	}

	byID := players.ByID()
	for _, sub := range active {
		tm, err := w.watchTeam(ctx, sub, byID)
		m.Add(tm)
		if err != nil {
			return m, err
		}
	}
	return m, nil
}

func (w *Watcher) watchTeam(ctx context.Context, sub Subscription, players map[int64]fpl.Player) (*cycleMetrics, error) {
	m := &cycleMetrics{}

	team, err := w.provider.Team(ctx, sub.TeamID)
	if err != nil {
		return m, err
	}
	picks, err := w.provider.Picks(ctx, team, 0)
	if err != nil {
		return m, err
	}

	for _, pick := range picks {
		player, ok := players[pick.Element]
		if !ok {
			// Best effort per pick; the pick list can lag the player list.
			w.log.Sugar().Warnw("Pick references unknown player, skipping",
				"element", pick.Element, "team_id", sub.TeamID)
			m.picksSkipped++
			continue
		}

		teamID := sub.TeamID
		decision, err := w.detector.UpdateNews(ctx, player.ID, ObservedNews{player.News, player.NewsAdded}, &teamID)
		if err != nil {
			return m, err
		}
		if decision == New {
			w.dispatcher.Dispatch(ctx, Notification{
				Recipient: sub.Handle,
				Body:      scopedBody(team, player),
			})
			m.notified++
		} else {
			m.unchanged++
		}
	}
	return m, nil
}
