package model

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptID string

// NewTranscriptID generates a new unique TranscriptID
func NewTranscriptID() TranscriptID {
	return TranscriptID(uuid.New().String())
}

// Transcript is the archived form of a finished dialogue.
type Transcript struct {
	ID           TranscriptID  `json:"id" firestore:"id"`
	Topic        string        `json:"topic" firestore:"topic"`
	Participants []string      `json:"participants" firestore:"participants"`
	Turns        []Turn        `json:"turns" firestore:"turns"`
	Evaluations  []*Evaluation `json:"evaluations,omitempty" firestore:"evaluations,omitempty"`
	CreatedAt    time.Time     `json:"created_at" firestore:"created_at"`
}

// NewTranscript snapshots a dialogue into a new transcript.
func NewTranscript(topic string, d Dialogue) *Transcript {
	return &Transcript{
		ID:           NewTranscriptID(),
		Topic:        topic,
		Participants: d.Speakers(),
		Turns:        d.Turns(),
		CreatedAt:    time.Now(),
	}
}

// Dialogue rebuilds the dialogue recorded in the transcript.
func (t *Transcript) Dialogue() Dialogue {
	return NewDialogue(t.Turns...)
}

// Evaluation is the outcome of scoring one speaker's side of a dialogue.
type Evaluation struct {
	Speaker    string   `json:"speaker" firestore:"speaker"`
	Score      float64  `json:"score" firestore:"score"`
	Violations []string `json:"violations" firestore:"violations"`
}
