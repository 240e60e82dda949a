package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/logger"
	"github.com/golang-jwt/jwt/v5"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWrap(t *testing.T) {
	log, _ := logger.NewTestLogger()
	m := New("s3cret", log, "/api/health/")

	valid, err := m.Sign("ops", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	expired, err := m.Sign("ops", -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	foreign, err := New("other", log).Sign("ops", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"valid", "/api/predict/manual/", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "/api/predict/manual/", "bearer " + valid, http.StatusOK},
		{"query token", "/api/predictions/feed?token=" + valid, "", http.StatusOK},
		{"missing", "/api/predict/manual/", "", http.StatusUnauthorized},
		{"basic", "/api/predict/manual/", "Basic abc", http.StatusUnauthorized},
		{"expired", "/api/predict/manual/", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "/api/predict/manual/", "Bearer " + foreign, http.StatusUnauthorized},
		{"alg none", "/api/predict/manual/", "Bearer " + none, http.StatusUnauthorized},
		{"health exempt", "/api/health/", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			m.Wrap(okHandler()).ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	log, _ := logger.NewTestLogger()
	m := New("", log)

	rr := httptest.NewRecorder()
	m.Wrap(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/predict/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	if _, err := m.Sign("ops", time.Hour); err == nil {
		t.Error("Sign without secret succeeded")
	}
}

func TestVerifySubject(t *testing.T) {
	log, _ := logger.NewTestLogger()
	m := New("s3cret", log)

	token, err := m.Sign("dashboard", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	subject, err := m.Verify(token)
	if err != nil || subject != "dashboard" {
		t.Errorf("Verify = %q, %v", subject, err)
	}
}
