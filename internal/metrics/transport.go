package metrics

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// roundTripper instruments outgoing collector requests.
type roundTripper struct {
	next     http.RoundTripper
	reg      *Registry
	provider string
	logger   *zap.Logger
}

// Transport wraps next so that every request is counted, timed and logged
// at debug level under the provider label. A nil next uses
// http.DefaultTransport.
func Transport(reg *Registry, provider string, logger *zap.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &roundTripper{next: next, reg: reg, provider: provider, logger: logger}
}

func (t *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if t.reg != nil {
		t.reg.RecordRequest(t.provider, status, duration.Seconds())
	}

	fields := []zap.Field{
		zap.String("provider", t.provider),
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	}
	if err != nil {
		t.logger.Warn("collector request failed", append(fields, zap.Error(err))...)
	} else {
		t.logger.Debug("collector request", fields...)
	}
	return resp, err
}
