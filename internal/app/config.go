package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/raysh454/proctor/internal/detector"
	"github.com/raysh454/proctor/internal/session"
)

// Config contains the runtime configuration shared by the process.
type Config struct {
	// ListenAddr is the HTTP listen address of the API server.
	ListenAddr string

	// StorageRoot is the directory holding the report database.
	StorageRoot string

	// DBFile is the report database file name under StorageRoot.
	DBFile string

	// Session configuration (poll cadences, thresholds, weights).
	Session session.Config

	// Detector is the inference service the HTTP client polls.
	Detector detector.Config

	// ReplayPath, when set, replaces the HTTP detector with a recorded capture.
	ReplayPath string
	ReplayLoop bool

	// SubscriberBuffer is the per-subscriber update channel size.
	SubscriberBuffer int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config populated with development defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:       ":8080",
		StorageRoot:      "~/.config/proctor",
		DBFile:           "reports.db",
		Session:          session.DefaultConfig(),
		Detector:         detector.DefaultConfig(),
		SubscriberBuffer: 64,
		ShutdownTimeout:  15 * time.Second,
	}
}

// LoadConfig overlays PROCTOR_* environment variables on DefaultConfig. A
// .env file in the working directory is loaded first when present; envFiles
// names additional files.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, err
		}
	} else {
		// Missing .env is fine: the process environment is used as-is.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	cfg.ListenAddr = getEnv("PROCTOR_ADDR", cfg.ListenAddr)
	cfg.StorageRoot = getEnv("PROCTOR_STORAGE_ROOT", cfg.StorageRoot)
	cfg.DBFile = getEnv("PROCTOR_DB_FILE", cfg.DBFile)
	cfg.Detector.BaseURL = getEnv("PROCTOR_DETECTOR_URL", cfg.Detector.BaseURL)
	cfg.Detector.Timeout = getEnvDuration("PROCTOR_DETECTOR_TIMEOUT", cfg.Detector.Timeout)
	cfg.ReplayPath = getEnv("PROCTOR_REPLAY", cfg.ReplayPath)
	cfg.ReplayLoop = getEnvBool("PROCTOR_REPLAY_LOOP", cfg.ReplayLoop)
	cfg.Session.FaceInterval = getEnvDuration("PROCTOR_FACE_INTERVAL", cfg.Session.FaceInterval)
	cfg.Session.ObjectInterval = getEnvDuration("PROCTOR_OBJECT_INTERVAL", cfg.Session.ObjectInterval)
	cfg.Session.Attention.Gaze.AwayThreshold = getEnvFloat("PROCTOR_GAZE_AWAY_THRESHOLD", cfg.Session.Attention.Gaze.AwayThreshold)
	cfg.Session.Attention.Gaze.RatioThreshold = getEnvFloat("PROCTOR_GAZE_RATIO_THRESHOLD", cfg.Session.Attention.Gaze.RatioThreshold)
	cfg.Session.Objects.MinConfidence = getEnvFloat("PROCTOR_OBJECT_MIN_CONFIDENCE", cfg.Session.Objects.MinConfidence)
	cfg.SubscriberBuffer = getEnvInt("PROCTOR_SUBSCRIBER_BUFFER", cfg.SubscriberBuffer)
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
