package interfaces

import (
	"context"

	"github.com/raysh454/proctor/internal/model"
)

// FaceDetector yields the faces visible in the current camera frame.
type FaceDetector interface {
	DetectFaces(ctx context.Context) ([]model.FaceObservation, error)
}

// ObjectDetector yields the classified objects in the current camera frame.
type ObjectDetector interface {
	DetectObjects(ctx context.Context) ([]model.ObjectDetection, error)
}

// Prober is implemented by detectors that can report, before a session
// starts, whether the camera and models behind them are available.
type Prober interface {
	Probe(ctx context.Context) error
}
