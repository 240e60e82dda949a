package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/classifier"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/logger"
)

type fakeCatalog bool

func (c fakeCatalog) Configured() bool { return bool(c) }

type fakeDB struct{ err error }

func (d fakeDB) Ping(context.Context) error { return d.err }

type fakeModel struct{ err error }

func (m fakeModel) Info() (classifier.Info, error) {
	return classifier.Info{Name: "hit_song_model", Version: "1"}, m.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name    string
		handler *HealthHandler
		status  string
		spotify bool
	}{
		{"healthy", &HealthHandler{spotifyClient: fakeCatalog(true), db: fakeDB{}, model: fakeModel{}}, "ok", true},
		{"no credentials", &HealthHandler{spotifyClient: fakeCatalog(false), db: fakeDB{}, model: fakeModel{}}, "ok", false},
		{"database down", &HealthHandler{spotifyClient: fakeCatalog(true), db: fakeDB{errors.New("closed")}, model: fakeModel{}}, "degraded", true},
		{"model missing", &HealthHandler{spotifyClient: fakeCatalog(true), db: fakeDB{}, model: fakeModel{&hitsong.ModelNotFoundError{Path: "x"}}}, "degraded", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.handler.log, _ = logger.NewTestLogger()

			req, err := http.NewRequest(http.MethodGet, "/api/health/", nil)
			if err != nil {
				t.Fatal(err)
			}
			rr := httptest.NewRecorder()
			tt.handler.ServeHTTP(rr, req)

			if status := rr.Code; status != http.StatusOK {
				t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
			}

			var resp Response
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Status != tt.status || resp.Spotify != tt.spotify || !resp.Server {
				t.Errorf("resp = %+v", resp)
			}
			if resp.Endpoints["predict_spotify"] != "/api/predict/spotify/" {
				t.Errorf("endpoints = %v", resp.Endpoints)
			}
		})
	}
}
