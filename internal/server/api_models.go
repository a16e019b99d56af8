package server

import (
	"github.com/raysh454/proctor/internal/session"
)

// StartSessionRequest starts monitoring a candidate.
type StartSessionRequest struct {
	CandidateName string `json:"candidateName" example:"Jane Doe"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"session already running"`
}

// WSMessage is the envelope written to live-update websocket clients. The
// first message is a snapshot; every later one carries an update.
type WSMessage struct {
	Type     string            `json:"type"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Update   *session.Update   `json:"update,omitempty"`
}
