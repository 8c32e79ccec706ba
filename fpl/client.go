package fpl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/fplwatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Cache memoizes expensive lookups. A miss is never an error; callers always
// fall through to the upstream API.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

const (
	teamTTL  = 10 * time.Minute
	picksTTL = 5 * time.Minute
)

func NewClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, transport http.RoundTripper, cache Cache) *Client {
	// The FPL API throttles aggressively; one request a second is plenty for
	// a polling cadence measured in minutes.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	return &Client{cfg, log, transport, cache, limiter}
}

type Client struct {
	cfg       *config.Config
	log       *zap.Logger
	transport http.RoundTripper
	cache     Cache
	limiter   *rate.Limiter
}

type bootstrapResponse struct {
	Elements Players `json:"elements"`
}

type picksResponse struct {
	Picks []Pick `json:"picks"`
}

func (c *Client) Players(ctx context.Context) (Players, error) {
	var resp bootstrapResponse
	if err := c.fetchJSON(ctx, "/bootstrap-static/", &resp); err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}
	return resp.Elements, nil
}

func (c *Client) Team(ctx context.Context, teamID int64) (*Team, error) {
	team := &Team{}
	key := fmt.Sprintf("team:%d", teamID)

	if raw, ok := c.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(raw, team); err == nil {
			return team, nil
		}
		c.log.Sugar().Warnw("Discarding unreadable cache entry", "key", key)
	}

	path := fmt.Sprintf("/entry/%d/", teamID)
	if err := c.fetchJSON(ctx, path, team); err != nil {
		return nil, fmt.Errorf("fetching team %d: %w", teamID, err)
	}

	if raw, err := json.Marshal(team); err == nil {
		c.cache.Set(ctx, key, raw, teamTTL)
	}
	return team, nil
}

func (c *Client) Picks(ctx context.Context, team *Team, gw int) ([]Pick, error) {
	if gw == 0 {
		gw = team.CurrentEvent
	}

	var resp picksResponse
	key := fmt.Sprintf("picks:%d:%d", team.ID, gw)

	if raw, ok := c.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(raw, &resp); err == nil {
			return resp.Picks, nil
		}
		c.log.Sugar().Warnw("Discarding unreadable cache entry", "key", key)
	}

	path := fmt.Sprintf("/entry/%d/event/%d/picks/", team.ID, gw)
	if err := c.fetchJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching picks for team %d gw %d: %w", team.ID, gw, err)
	}

	if raw, err := json.Marshal(resp); err == nil {
		c.cache.Set(ctx, key, raw, picksTTL)
	}
	return resp.Picks, nil
}

func (c *Client) fetchJSON(ctx context.Context, path string, into any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return requests.
		URL(c.cfg.FPLBaseURL + path).
		Transport(c.transport).
		ToJSON(into).
		Fetch(ctx)
}
