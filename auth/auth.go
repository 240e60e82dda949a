// Package auth guards the API with HS256 bearer tokens.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/config"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/respond"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const issuer = "hitpredict"

// Middleware rejects requests without a valid bearer token. With no secret
// configured every request passes.
type Middleware struct {
	secret []byte
	exempt map[string]bool
	log    *zap.SugaredLogger
}

func New(secret string, log *zap.SugaredLogger, exempt ...string) *Middleware {
	m := &Middleware{secret: []byte(secret), exempt: make(map[string]bool), log: log}
	for _, p := range exempt {
		m.exempt[p] = true
	}
	return m
}

// ProvideAuth provides the API middleware. Health stays open.
func ProvideAuth(cfg config.Config, log *zap.SugaredLogger) *Middleware {
	if cfg.JWTSecret == "" {
		log.Info("API authentication disabled")
	}
	return New(cfg.JWTSecret, log, "/api/health/")
}

var Options = ProvideAuth

// Enabled reports whether tokens are checked.
func (m *Middleware) Enabled() bool {
	return len(m.secret) > 0
}

// Sign issues a token for subject valid for ttl.
func (m *Middleware) Sign(subject string, ttl time.Duration) (string, error) {
	if !m.Enabled() {
		return "", errors.New("no signing secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token, returning its subject.
func (m *Middleware) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() || m.exempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := bearer(r)
		if token == "" {
			respond.Fail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		subject, err := m.Verify(token)
		if err != nil {
			m.log.Infow("Rejected API token", "path", r.URL.Path, "error", err)
			respond.Fail(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		m.log.Debugw("Authenticated request", "subject", subject, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// bearer reads the Authorization header, falling back to the token query
// parameter since browsers cannot set headers on websocket upgrades.
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
