package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smetka/internal/render"
)

var ErrInvalidMessage = errors.New("invalid render job message")

// RenderJobMessage asks the worker to produce the printed form for a snapshot.
// It carries the declaration, not just an ID: nothing is persisted between the
// calculation and the print step.
type RenderJobMessage struct {
	JobID     string              `json:"job_id"`
	Snapshot  render.Snapshot     `json:"snapshot"`
	Details   render.PrintDetails `json:"details"`
	Timestamp time.Time           `json:"timestamp"`
}

// NewRenderJobMessage creates a job message stamped with the current time.
func NewRenderJobMessage(jobID string, s render.Snapshot, p render.PrintDetails) *RenderJobMessage {
	return &RenderJobMessage{
		JobID:     jobID,
		Snapshot:  s,
		Details:   p,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RenderJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RenderJobMessageFromJSON decodes a message and recalculates its snapshot.
// Messages that cannot be rendered are reported as ErrInvalidMessage.
func RenderJobMessageFromJSON(data []byte) (*RenderJobMessage, error) {
	var msg RenderJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.JobID == "" {
		return nil, fmt.Errorf("%w: missing job_id", ErrInvalidMessage)
	}
	s, err := render.NewSnapshot(msg.Snapshot.Declaration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Details.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	msg.Snapshot = s
	return &msg, nil
}
