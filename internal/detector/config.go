package detector

import "time"

// Config points the HTTP client at an inference service that owns the
// camera and runs the face-landmark and object models.
type Config struct {
	BaseURL     string        `json:"base_url"`
	Timeout     time.Duration `json:"timeout"`
	HealthPath  string        `json:"health_path"`
	FacesPath   string        `json:"faces_path"`
	ObjectsPath string        `json:"objects_path"`
}

// DefaultConfig targets a local inference service.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:9000",
		Timeout:     2 * time.Second,
		HealthPath:  "/health",
		FacesPath:   "/faces",
		ObjectsPath: "/objects",
	}
}
