// Package detector adapts external face and object detection sources to the
// interfaces the session polls.
package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/model"
)

// maxBody caps a detector response.
const maxBody = 4 << 20

// HTTPClient polls an inference service over HTTP. It implements
// interfaces.FaceDetector, interfaces.ObjectDetector and interfaces.Prober.
type HTTPClient struct {
	cfg    Config
	base   *url.URL
	client *http.Client
	logger logging.Logger
}

type facesResponse struct {
	Faces []model.FaceObservation `json:"faces"`
}

type objectsResponse struct {
	Detections []model.ObjectDetection `json:"detections"`
}

// NewHTTPClient validates cfg and returns a client.
func NewHTTPClient(cfg Config, logger logging.Logger) (*HTTPClient, error) {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = def.HealthPath
	}
	if cfg.FacesPath == "" {
		cfg.FacesPath = def.FacesPath
	}
	if cfg.ObjectsPath == "" {
		cfg.ObjectsPath = def.ObjectsPath
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("detector base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid detector base URL %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &HTTPClient{
		cfg:    cfg,
		base:   base,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Probe checks that the service answers its health endpoint.
func (c *HTTPClient) Probe(ctx context.Context) error {
	resp, err := c.get(ctx, c.cfg.HealthPath)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// DetectFaces implements interfaces.FaceDetector.
func (c *HTTPClient) DetectFaces(ctx context.Context) ([]model.FaceObservation, error) {
	var out facesResponse
	if err := c.getJSON(ctx, c.cfg.FacesPath, &out); err != nil {
		return nil, err
	}
	return out.Faces, nil
}

// DetectObjects implements interfaces.ObjectDetector.
func (c *HTTPClient) DetectObjects(ctx context.Context) ([]model.ObjectDetection, error) {
	var out objectsResponse
	if err := c.getJSON(ctx, c.cfg.ObjectsPath, &out); err != nil {
		return nil, err
	}
	return out.Detections, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		c.logger.Debug("detector returned non-2xx",
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
