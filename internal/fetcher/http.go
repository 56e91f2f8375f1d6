package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// httpStrategy is the first-tier acquisition: net/http with the session's
// cookie jar and browser-shaped headers. Connection-level failures get up to
// maxRetries backoff retries with UA rotation; the second retry drops the
// proxy in case it is the culprit.
type httpStrategy struct {
	cfg    *config.FetcherConfig
	ua     *UserAgentPool
	logger *slog.Logger
}

func newHTTPStrategy(cfg *config.FetcherConfig, ua *UserAgentPool, logger *slog.Logger) *httpStrategy {
	return &httpStrategy{
		cfg:    cfg,
		ua:     ua,
		logger: logger.With("component", "http_strategy"),
	}
}

func (s *httpStrategy) name() string { return "http" }

func (s *httpStrategy) fetch(ctx context.Context, target *url.URL, profile *retailers.Profile, sess *Session, lease *ProxyLease) ([]byte, int, error) {
	timeout := profile.DefaultTimeout
	if timeout <= 0 {
		timeout = s.cfg.RequestTimeout
	}

	var lastErr error
	for retry := 0; retry < maxOrOne(s.cfg.MaxRetries); retry++ {
		useLease := lease
		if retry >= 2 {
			// The proxy may be the problem; go direct.
			useLease = nil
		}

		client := &http.Client{
			Transport: s.transport(useLease),
			Jar:       sess.Jar,
			Timeout:   timeout,
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
		}
		sess.ApplyHeaders(req, target)
		if retry > 0 {
			// Rotate the UA on retries; some edges key rate limits on it.
			req.Header.Set("User-Agent", s.ua.Pick())
		}

		resp, err := client.Do(req)
		if err != nil {
			client.CloseIdleConnections()
			if !isRetryableNetErr(err) {
				return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
			}
			lastErr = err
			if err := sleepCtx(ctx, time.Duration(retry+1)*time.Second); err != nil {
				return nil, 0, err
			}
			continue
		}

		body, readErr := readBody(resp, s.cfg.MaxBodySize)
		resp.Body.Close()
		client.CloseIdleConnections()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, resp.StatusCode, nil
	}
	return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: lastErr}
}

func (s *httpStrategy) transport(lease *ProxyLease) *http.Transport {
	t := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        4,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  true, // decompression handled here, including brotli
	}
	if lease != nil {
		t.Proxy = http.ProxyURL(lease.URL)
	}
	return t
}

// readBody applies the size cap and decompresses gzip/deflate/brotli.
func readBody(resp *http.Response, maxBody int64) ([]byte, error) {
	var reader io.Reader = resp.Body
	if maxBody > 0 {
		reader = io.LimitReader(reader, maxBody)
	}
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fr := flate.NewReader(reader)
		defer fr.Close()
		reader = fr
	case "br":
		reader = brotli.NewReader(reader)
	}
	return io.ReadAll(reader)
}

// isRetryableNetErr covers timeouts, resets, refused connections, and
// truncated streams. Context cancellation is never retryable.
func isRetryableNetErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) || errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	// url.Error wraps the transport error; unwrap and re-check.
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return isRetryableNetErr(urlErr.Err)
	}
	return false
}

func maxOrOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
