package detector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/raysh454/proctor/internal/model"
)

var ErrEmptyCapture = errors.New("capture has no frames")

// Frame is one recorded camera frame's detector output.
type Frame struct {
	Faces   []model.FaceObservation `json:"faces"`
	Objects []model.ObjectDetection `json:"objects"`
}

// Replay serves a recorded capture. The face and object channels advance
// independently, one frame per call. Without loop the last frame repeats.
type Replay struct {
	mu     sync.Mutex
	frames []Frame
	loop   bool
	faceAt int
	objAt  int
}

// NewReplay serves frames.
func NewReplay(frames []Frame, loop bool) *Replay {
	return &Replay{frames: frames, loop: loop}
}

// LoadReplay reads a JSON-lines capture, one Frame per line. Blank lines and
// lines starting with # are ignored.
func LoadReplay(r io.Reader, loop bool) (*Replay, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxBody)

	var frames []Frame
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var f Frame
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			return nil, fmt.Errorf("capture line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}
	return NewReplay(frames, loop), nil
}

// OpenReplay loads a capture file.
func OpenReplay(path string, loop bool) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadReplay(f, loop)
}

// Len is the number of frames in the capture.
func (r *Replay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Probe fails on an empty capture.
func (r *Replay) Probe(ctx context.Context) error {
	if r.Len() == 0 {
		return ErrEmptyCapture
	}
	return nil
}

// DetectFaces implements interfaces.FaceDetector.
func (r *Replay) DetectFaces(ctx context.Context) ([]model.FaceObservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.next(&r.faceAt)
	if err != nil {
		return nil, err
	}
	return f.Faces, nil
}

// DetectObjects implements interfaces.ObjectDetector.
func (r *Replay) DetectObjects(ctx context.Context) ([]model.ObjectDetection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.next(&r.objAt)
	if err != nil {
		return nil, err
	}
	return f.Objects, nil
}

func (r *Replay) next(cursor *int) (Frame, error) {
	if len(r.frames) == 0 {
		return Frame{}, ErrEmptyCapture
	}
	if *cursor >= len(r.frames) {
		if r.loop {
			*cursor = 0
		} else {
			return r.frames[len(r.frames)-1], nil
		}
	}
	f := r.frames[*cursor]
	*cursor++
	return f, nil
}
