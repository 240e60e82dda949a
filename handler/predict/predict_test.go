package predict

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/respond"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/logger"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/predictor"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/resolver"
)

type fakeService struct {
	err error

	req     resolver.Request
	input   map[string]any
	title   string
	artist  string
	payload string
}

func (s *fakeService) PredictFromCatalog(_ context.Context, req resolver.Request, payload []byte) (*predictor.Response, error) {
	s.req, s.payload = req, string(payload)
	if s.err != nil {
		return nil, s.err
	}
	return &predictor.Response{Prediction: hitsong.Hit, Confidence: 75, PredictionID: "p1"}, nil
}

func (s *fakeService) PredictManual(_ context.Context, input map[string]any, title, artist string, payload []byte) (*predictor.Response, error) {
	s.input, s.title, s.artist, s.payload = input, title, artist, string(payload)
	if s.err != nil {
		return nil, s.err
	}
	return &predictor.Response{Prediction: hitsong.Flop, Confidence: 30, PredictionID: "p2"}, nil
}

func serve(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v: %s", err, rr.Body.String())
	}
	return rr, out
}

func TestSpotifyHandlerTrackRef(t *testing.T) {
	log, _ := logger.NewTestLogger()
	svc := &fakeService{}
	h := &SpotifyHandler{log: log, service: svc}

	body := `{"url":"https://open.spotify.com/track/5SuOikwiRyPMVoIQDJUgSV"}`
	rr, out := serve(t, h, body)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if out["prediction"] != "HIT" || out["prediction_id"] != "p1" {
		t.Errorf("body = %v", out)
	}
	if svc.req.TrackRef != "https://open.spotify.com/track/5SuOikwiRyPMVoIQDJUgSV" {
		t.Errorf("TrackRef = %q", svc.req.TrackRef)
	}
	if svc.payload != body {
		t.Errorf("payload = %q", svc.payload)
	}
}

func TestSpotifyHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		check  func(t *testing.T, out map[string]any)
	}{
		{
			name:   "invalid json",
			body:   `{"title":`,
			status: http.StatusBadRequest,
			check: func(t *testing.T, out map[string]any) {
				if out["error"] != respond.InvalidJSON {
					t.Errorf("error = %v", out["error"])
				}
			},
		},
		{
			name:   "no identity",
			body:   `{"title":"Comedy"}`,
			err:    resolver.ErrNoIdentity,
			status: http.StatusBadRequest,
			check: func(t *testing.T, out map[string]any) {
				if out["usage"] == nil {
					t.Errorf("usage missing: %v", out)
				}
			},
		},
		{
			name: "not in training data",
			body: `{"title":"Unknown","artist":"Nobody"}`,
			err: &hitsong.NotInTrainingDataError{Title: "Unknown", Artist: "Nobody", Candidates: []hitsong.Candidate{
				{TrackInfo: hitsong.TrackInfo{ID: "a", Title: "Unknown", Artist: "Nobody"}},
			}},
			status: http.StatusBadRequest,
			check: func(t *testing.T, out map[string]any) {
				results, _ := out["spotify_results"].([]any)
				if out["found_on_spotify"] != true || len(results) != 1 || out["suggestion"] == nil {
					t.Errorf("body = %v", out)
				}
			},
		},
		{
			name:   "not found",
			body:   `{"track_id":"missing"}`,
			err:    &hitsong.RemoteNotFoundError{Resource: "track", ID: "missing"},
			status: http.StatusNotFound,
		},
		{
			name:   "catalog auth",
			body:   `{"track_id":"x"}`,
			err:    &hitsong.RemoteAuthError{},
			status: http.StatusBadGateway,
		},
		{
			name:   "catalog timeout",
			body:   `{"track_id":"x"}`,
			err:    &hitsong.CatalogUnavailableError{Op: "get track", Cause: context.DeadlineExceeded},
			status: http.StatusGatewayTimeout,
		},
		{
			name:   "features unavailable",
			body:   `{"track_id":"x"}`,
			err:    &hitsong.FeaturesUnavailableError{Title: "A", Artist: "B"},
			status: http.StatusBadRequest,
		},
		{
			name:   "model missing",
			body:   `{"track_id":"x"}`,
			err:    &hitsong.ModelNotFoundError{Path: "nope.json"},
			status: http.StatusInternalServerError,
		},
		{
			name:   "unexpected",
			body:   `{"track_id":"x"}`,
			err:    errors.New("disk full"),
			status: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := logger.NewTestLogger()
			h := &SpotifyHandler{log: log, service: &fakeService{err: tt.err}}

			rr, out := serve(t, h, tt.body)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if out["error"] == nil || out["error"] == "" {
				t.Errorf("error message missing: %v", out)
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestManualHandler(t *testing.T) {
	log, _ := logger.NewTestLogger()
	svc := &fakeService{}
	h := &ManualHandler{log: log, service: svc, pattern: "/api/predict/manual/"}

	rr, out := serve(t, h, `{"title":" Comedy ","artist":"Gen Hoshino","duration_ms":230666,"tempo":87.917}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if out["prediction"] != "FLOP" {
		t.Errorf("body = %v", out)
	}
	if svc.title != "Comedy" || svc.artist != "Gen Hoshino" {
		t.Errorf("title/artist = %q/%q", svc.title, svc.artist)
	}
	if svc.input["duration_ms"] != 230666.0 {
		t.Errorf("input = %v", svc.input)
	}
}

func TestManualHandlerMissingFeatures(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := &ManualHandler{log: log, service: &fakeService{err: &hitsong.MissingFeatureError{Keys: []string{"tempo"}}}}

	rr, out := serve(t, h, `{"duration_ms":230666}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
	if !strings.Contains(out["error"].(string), "tempo") || out["tip"] == nil {
		t.Errorf("body = %v", out)
	}
}

func TestManualHandlerInvalidJSON(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := &ManualHandler{log: log, service: &fakeService{}}

	for _, body := range []string{`not json`, `null`, `[1,2]`} {
		rr, out := serve(t, h, body)
		if rr.Code != http.StatusBadRequest || out["error"] != respond.InvalidJSON {
			t.Errorf("%s: status = %d body = %v", body, rr.Code, out)
		}
	}
}

func TestLegacyPattern(t *testing.T) {
	log, _ := logger.NewTestLogger()
	if p := NewLegacyHandler(log, nil).Pattern(); p != "/api/predict/" {
		t.Errorf("Pattern = %q", p)
	}
	if p := NewManualHandler(log, nil).Pattern(); p != "/api/predict/manual/" {
		t.Errorf("Pattern = %q", p)
	}
}
