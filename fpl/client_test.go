package fpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fiffu/fplwatch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	return raw, ok
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memCache, *int) {
	t.Helper()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{FPLBaseURL: srv.URL}
	cache := newMemCache()
	client := &Client{cfg, zap.NewNop(), http.DefaultTransport, cache, rate.NewLimiter(rate.Inf, 0)}
	return client, cache, &hits
}

func TestPlayers(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bootstrap-static/", r.URL.Path)
		w.Write([]byte(`{"elements": [
			{"id": 9, "web_name": "Salah", "first_name": "Mohamed", "second_name": "Salah",
			 "news": "Knee injury", "news_added": "2024-01-01T00:00:00.000000Z",
			 "chance_of_playing_this_round": 25},
			{"id": 10, "web_name": "Haaland", "news": "", "news_added": null,
			 "chance_of_playing_this_round": null}
		]}`))
	}))

	players, err := client.Players(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Equal(t, "Mohamed Salah", players[0].FullName())
	require.NotNil(t, players[0].NewsAdded)
	assert.Equal(t, 2024, players[0].NewsAdded.Year())
	require.NotNil(t, players[0].ChanceOfPlayingThisRound)
	assert.Equal(t, 25, *players[0].ChanceOfPlayingThisRound)

	assert.Nil(t, players[1].NewsAdded)
	assert.Nil(t, players[1].ChanceOfPlayingThisRound)

	index := players.ByID()
	assert.Equal(t, "Haaland", index[10].WebName)
}

func TestTeam_UsesCache(t *testing.T) {
	client, _, hits := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entry/42/", r.URL.Path)
		w.Write([]byte(`{"id": 42, "name": "Mighty Ducks", "player_first_name": "Alice", "current_event": 3}`))
	}))
	ctx := context.Background()

	team, err := client.Team(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Mighty Ducks", team.Name)
	assert.Equal(t, 1, *hits)

	// Second lookup is memoized.
	team, err = client.Team(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Alice", team.PlayerFirstName)
	assert.Equal(t, 1, *hits)
}

func TestPicks_DefaultsToCurrentEvent(t *testing.T) {
	client, _, hits := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entry/42/event/3/picks/", r.URL.Path)
		w.Write([]byte(`{"picks": [{"element": 9}, {"element": 10}]}`))
	}))
	ctx := context.Background()

	team := &Team{ID: 42, CurrentEvent: 3}
	picks, err := client.Picks(ctx, team, 0)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	assert.EqualValues(t, 9, picks[0].Element)

	_, err = client.Picks(ctx, team, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)
}

func TestTeam_UpstreamFailurePropagates(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))

	_, err := client.Team(context.Background(), 42)
	require.Error(t, err)
}
