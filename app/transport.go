package app

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewTransport(lc fx.Lifecycle, log *zap.Logger) http.RoundTripper {
	return &transport{http.DefaultTransport, log}
}

type transport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (tpt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := tpt.base.RoundTrip(req)
	if err != nil {
		tpt.log.Sugar().Debugw("Request failed", "method", req.Method, "url", req.URL.String(), "err", err)
		return resp, err
	}
	tpt.log.Sugar().Debugw("Request completed", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return resp, nil
}
