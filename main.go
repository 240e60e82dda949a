package main

import (
	"context"
	"net"
	"net/http"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/auth"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/classifier"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/config"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/feed"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/firestore"
	datasetHandler "github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/dataset"
	feedHandler "github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/feed"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/health"
	predictHandler "github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/predict"
	spotHandler "github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/spotify"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/logger"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/musicbrainz"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/predictor"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/resolver"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/spotify"
	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string
	// Methods lists the accepted HTTP methods.
	Methods() []string
}

//	@title			Hit Song Predictor
//	@version		1.0
//	@description	Predicts whether a song is a HIT or a FLOP from its audio features

// @host		localhost:8080
// @BasePath	/
func main() {
	fx.New(
		fx.Provide(
			fx.Annotate(NewHTTPServer, fx.ParamTags(`group:"routes"`)),
			config.Options,
			logger.Options,
			database.Options,
			spotify.Options,
			musicbrainz.Options,
			classifier.Options,
			resolver.Options,
			feed.Options,
			firestore.Options,
			predictor.Options,
			auth.Options,

			AsRoute(health.NewHealthHandler),
			AsRoute(predictHandler.NewSpotifyHandler),
			AsRoute(predictHandler.NewManualHandler),
			AsRoute(predictHandler.NewLegacyHandler),
			AsRoute(spotHandler.NewSearchHandler),
			AsRoute(datasetHandler.NewSearchHandler),
			AsRoute(feedHandler.NewFeedHandler),
		),
		fx.WithLogger(func(log *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Desugar()}
		}),
		fx.Invoke(warmModel),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}

func NewHTTPServer(
	routes []Route,
	lc fx.Lifecycle,
	cfg config.Config,
	logger *zap.SugaredLogger,
	authMiddleware *auth.Middleware,
	hub *feed.Hub,
) *http.Server {
	router := mux.NewRouter()
	for _, route := range routes {
		router.Handle(route.Pattern(), route).Methods(route.Methods()...)
	}
	router.Use(jsonMiddleware, authMiddleware.Wrap)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Infow("Starting HTTP server", "addr", srv.Addr, "routes", len(routes), "auth", authMiddleware.Enabled())
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

// warmModel loads the classifier before the server accepts requests. A
// missing artifact stops startup.
func warmModel(lc fx.Lifecycle, model *classifier.Classifier, logger *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if _, err := model.Load(); err != nil {
				logger.Errorw("Failed to load model", "error", err)
				return err
			}
			return nil
		},
	})
}

// AsRoute annotates the given constructor to state that
// it provides a route to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
