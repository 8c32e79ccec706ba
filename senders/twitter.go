package senders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/dghubble/oauth1"
)

type twitterSender struct {
	base
	client *http.Client
}

func newTwitterSender(b base) *twitterSender {
	conf := oauth1.NewConfig(b.cfg.Twitter.ConsumerKey, b.cfg.Twitter.ConsumerSecret)
	token := oauth1.NewToken(b.cfg.Twitter.AccessToken, b.cfg.Twitter.AccessSecret)

	ctx := context.WithValue(oauth1.NoContext, oauth1.HTTPClient, &http.Client{Transport: b.transport})
	return &twitterSender{b, conf.Client(ctx, token)}
}

type tweet struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	User struct {
		ScreenName string `json:"screen_name"`
	} `json:"user"`
}

func (t *twitterSender) Post(ctx context.Context, body string, replyToID int64) (string, error) {
	ctx, cancel := t.callTimeout(ctx)
	defer cancel()

	form := url.Values{"status": {body}}
	if replyToID != 0 {
		form.Set("in_reply_to_status_id", strconv.FormatInt(replyToID, 10))
		form.Set("auto_populate_reply_metadata", "true")
	}

	var posted tweet
	err := requests.
		URL(t.cfg.Twitter.BaseURL + "/1.1/statuses/update.json").
		Client(t.client).
		BodyForm(form).
		ToJSON(&posted).
		Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("posting status: %w", err)
	}
	return strconv.FormatInt(posted.ID, 10), nil
}

func (t *twitterSender) Mentions(ctx context.Context, sinceID int64) ([]Mention, error) {
	ctx, cancel := t.callTimeout(ctx)
	defer cancel()

	req := requests.
		URL(t.cfg.Twitter.BaseURL + "/1.1/statuses/mentions_timeline.json").
		Client(t.client).
		Param("count", "200")
	if sinceID != 0 {
		req = req.Param("since_id", strconv.FormatInt(sinceID, 10))
	}

	var tweets []tweet
	if err := req.ToJSON(&tweets).Fetch(ctx); err != nil {
		return nil, fmt.Errorf("fetching mentions: %w", err)
	}

	mentions := make([]Mention, 0, len(tweets))
	for _, tw := range tweets {
		mentions = append(mentions, Mention{
			ID:           tw.ID,
			Text:         tw.Text,
			AuthorHandle: tw.User.ScreenName,
		})
	}
	// The timeline arrives newest first; callers process in arrival order.
	sort.Slice(mentions, func(i, j int) bool { return mentions[i].ID < mentions[j].ID })
	return mentions, nil
}

func (t *twitterSender) callTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(t.cfg.Twitter.TimeoutSecs) * time.Second
	return context.WithTimeout(ctx, timeout)
}
