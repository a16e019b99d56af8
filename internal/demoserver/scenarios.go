package demoserver

import (
	"github.com/raysh454/proctor/internal/detector"
	"github.com/raysh454/proctor/internal/model"
)

// Scenario names.
const (
	ScenarioFocused       = "focused"
	ScenarioLookingAway   = "looking_away"
	ScenarioNoFace        = "no_face"
	ScenarioMultipleFaces = "multiple_faces"
	ScenarioPhone         = "phone"
	ScenarioBook          = "book"
	ScenarioDevice        = "device"
)

// Scenario is one canned detector answer served until switched.
type Scenario struct {
	Name        string
	Description string
	Frame       detector.Frame
}

// face builds a 200px-wide face with the nose tip at x=100.
func face(offsetX, rightX, leftX float64) model.FaceObservation {
	eye := func(x float64) []model.Point {
		return []model.Point{{X: offsetX + x - 3, Y: 90}, {X: offsetX + x, Y: 87}, {X: offsetX + x + 3, Y: 91}}
	}
	return model.FaceObservation{
		TopLeft:     model.Point{X: offsetX, Y: 20},
		BottomRight: model.Point{X: offsetX + 200, Y: 260},
		RightEye:    eye(rightX),
		LeftEye:     eye(leftX),
		Nose:        []model.Point{{X: offsetX + 100, Y: 140}, {X: offsetX + 100, Y: 150}},
	}
}

func object(class string, conf float64) model.ObjectDetection {
	return model.ObjectDetection{
		Class:      class,
		Confidence: conf,
		BBox:       model.BoundingBox{X: 400, Y: 300, Width: 80, Height: 140},
	}
}

// GetAllScenarios returns every built-in scenario.
func GetAllScenarios() []Scenario {
	centered := face(120, 85, 115)
	return []Scenario{
		{
			Name:        ScenarioFocused,
			Description: "One candidate looking straight at the screen",
			Frame:       detector.Frame{Faces: []model.FaceObservation{centered}},
		},
		{
			Name:        ScenarioLookingAway,
			Description: "Head turned: both eyes on one side of the nose",
			Frame:       detector.Frame{Faces: []model.FaceObservation{face(120, 95, 140)}},
		},
		{
			Name:        ScenarioNoFace,
			Description: "Empty frame",
			Frame:       detector.Frame{},
		},
		{
			Name:        ScenarioMultipleFaces,
			Description: "A second person in view",
			Frame:       detector.Frame{Faces: []model.FaceObservation{centered, face(380, 85, 115)}},
		},
		{
			Name:        ScenarioPhone,
			Description: "Candidate holding a cell phone",
			Frame: detector.Frame{
				Faces:   []model.FaceObservation{centered},
				Objects: []model.ObjectDetection{object("cell phone", 0.82), object("person", 0.97)},
			},
		},
		{
			Name:        ScenarioBook,
			Description: "Open book on the desk",
			Frame: detector.Frame{
				Faces:   []model.FaceObservation{centered},
				Objects: []model.ObjectDetection{object("book", 0.74)},
			},
		},
		{
			Name:        ScenarioDevice,
			Description: "Second laptop in view, low-confidence mouse ignored",
			Frame: detector.Frame{
				Faces:   []model.FaceObservation{centered},
				Objects: []model.ObjectDetection{object("laptop", 0.9), object("mouse", 0.41)},
			},
		},
	}
}
