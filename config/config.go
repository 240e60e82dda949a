package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `default:"8080"`

	// DatabaseDriver is "sqlite" or "postgres".
	DatabaseDriver string `split_words:"true" default:"sqlite"`
	DatabaseURL    string `split_words:"true" default:"hitpredict.db"`

	SpotifyID       string `split_words:"true"`
	SpotifySecret   string `split_words:"true"`
	SpotifyTokenURL string `split_words:"true" default:"https://accounts.spotify.com/api/token"`
	SpotifyAPIURL   string `split_words:"true" default:"https://api.spotify.com/v1/"`

	// RequestTimeout bounds every outbound call.
	RequestTimeout     time.Duration `split_words:"true" default:"10s"`
	TokenRefreshMargin time.Duration `split_words:"true" default:"60s"`

	ModelPath string `split_words:"true" default:"ml_models/hit_song_model.json"`

	FirestoreProjectID string `split_words:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET"`
	MusicbrainzEnabled bool   `split_words:"true" default:"true"`
}

// Load reads an optional .env file and then the HITPREDICT_* environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("hitpredict", &cfg)
	return cfg, err
}

func ProvideConfig() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}

var Options = ProvideConfig
