// Package model holds the per-frame detection types and the session-level
// violation and event types shared by the trackers, the session and reports.
package model

// Point is a pixel coordinate in the camera frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceObservation is one detected face in one frame. Each eye contributes
// three landmark points; the first nose point is the nose tip.
type FaceObservation struct {
	TopLeft     Point   `json:"topLeft"`
	BottomRight Point   `json:"bottomRight"`
	RightEye    []Point `json:"rightEye"`
	LeftEye     []Point `json:"leftEye"`
	Nose        []Point `json:"nose"`
}

// Width is the horizontal extent of the face box.
func (f FaceObservation) Width() float64 {
	w := f.TopLeft.X - f.BottomRight.X
	if w < 0 {
		return -w
	}
	return w
}

// BoundingBox is an object box in pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ObjectDetection is one classified box from the object model.
type ObjectDetection struct {
	Class      string      `json:"class"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}
