package spotify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// defaultTokenLifetime applies when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

// tokenCache holds the client-credentials access token shared by all requests.
type tokenCache struct {
	mu      sync.Mutex
	cfg     *clientcredentials.Config
	token   *oauth2.Token
	margin  time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *zap.SugaredLogger
}

func newTokenCache(cfg *clientcredentials.Config, margin, timeout time.Duration, log *zap.SugaredLogger) *tokenCache {
	return &tokenCache{
		cfg:     cfg,
		margin:  margin,
		timeout: timeout,
		now:     time.Now,
		log:     log,
	}
}

// Token returns the cached token, exchanging credentials for a new one when
// none is cached or it expires within the refresh margin.
func (c *tokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.now().Before(c.token.Expiry.Add(-c.margin)) {
		return c.token, nil
	}

	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, &hitsong.RemoteAuthError{Cause: errors.New("spotify credentials not configured")}
	}

	c.log.Info("Requesting new Spotify access token")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: c.timeout})

	tok, err := c.cfg.Token(ctx)
	if err != nil {
		return nil, &hitsong.RemoteAuthError{Cause: err}
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = c.now().Add(defaultTokenLifetime)
	}
	c.token = tok

	c.log.Infow("Spotify access token obtained", "expiry", tok.Expiry)
	return tok, nil
}

// Invalidate drops the cached token if it is still the one that was rejected.
func (c *tokenCache) Invalidate(rejected string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.token.AccessToken == rejected {
		c.token = nil
	}
}

// bearerTransport authorises catalog requests. A 401 refreshes the token and
// retries the request exactly once.
type bearerTransport struct {
	tokens *tokenCache
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, used, err := t.send(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	resp.Body.Close()

	t.tokens.Invalidate(used)
	resp, _, err = t.send(req)
	return resp, err
}

func (t *bearerTransport) send(req *http.Request) (*http.Response, string, error) {
	tok, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, "", err
	}

	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, "", err
		}
		r.Body = body
	}
	r.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := t.base.RoundTrip(r)
	return resp, tok.AccessToken, err
}
