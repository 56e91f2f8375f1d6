package fetcher

import (
	"context"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// tlsStrategy is the second-tier acquisition: the same request shape as the
// plain HTTP strategy, but the TLS handshake presents a Chrome ClientHello
// via utls. Defenses that fingerprint Go's crypto/tls pass this client.
type tlsStrategy struct {
	cfg    *config.FetcherConfig
	logger *slog.Logger
}

func newTLSStrategy(cfg *config.FetcherConfig, logger *slog.Logger) *tlsStrategy {
	return &tlsStrategy{
		cfg:    cfg,
		logger: logger.With("component", "tls_strategy"),
	}
}

func (s *tlsStrategy) name() string { return "tls_client" }

func (s *tlsStrategy) fetch(ctx context.Context, target *url.URL, profile *retailers.Profile, sess *Session, lease *ProxyLease) ([]byte, int, error) {
	timeout := profile.DefaultTimeout
	if timeout <= 0 {
		timeout = s.cfg.RequestTimeout
	}

	client := &http.Client{
		Transport: s.transport(lease),
		Jar:       sess.Jar,
		Timeout:   timeout,
	}
	defer client.CloseIdleConnections()

	// Strict hosts expect a navigation history before the product page.
	for _, warm := range profile.WarmupPaths {
		warmURL := &url.URL{Scheme: target.Scheme, Host: target.Host, Path: warm}
		if err := s.get(ctx, client, warmURL, sess, true); err != nil {
			s.logger.Debug("warm-up request failed", "url", warmURL, "error", err)
			break
		}
		if err := sleepCtx(ctx, time.Duration(500+rand.Intn(1000))*time.Millisecond); err != nil {
			return nil, 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
	}
	sess.ApplyHeaders(req, target)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp, s.cfg.MaxBodySize)
	if err != nil {
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
	}
	return body, resp.StatusCode, nil
}

func (s *tlsStrategy) get(ctx context.Context, client *http.Client, u *url.URL, sess *Session, discard bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	sess.ApplyHeaders(req, u)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if discard {
		_, _ = readBody(resp, 256*1024)
	}
	return nil
}

func (s *tlsStrategy) transport(lease *ProxyLease) *http.Transport {
	t := &http.Transport{
		DialTLSContext:  dialTLSChrome,
		MaxIdleConns:    4,
		IdleConnTimeout: 30 * time.Second,
		// Compression negotiated by the headers; decompressed in readBody.
		DisableCompression: true,
	}
	if lease != nil {
		t.Proxy = http.ProxyURL(lease.URL)
	}
	return t
}

// dialTLSChrome establishes a TLS connection presenting a Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 15 * time.Second}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
	}, utls.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
