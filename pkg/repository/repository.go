package repository

import (
	"context"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when no transcript has the requested ID.
var ErrNotFound = goerr.New("transcript not found")

// Repository defines the interface for transcript persistence
type Repository interface {
	// PutTranscript saves a transcript, replacing one with the same ID
	PutTranscript(ctx context.Context, t *model.Transcript) error

	// GetTranscript retrieves a transcript by ID
	GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error)

	// ListTranscripts retrieves transcripts, newest first
	ListTranscripts(ctx context.Context, offset, limit int) ([]*model.Transcript, error)
}

func validate(t *model.Transcript) error {
	if t == nil {
		return goerr.New("transcript is nil")
	}
	if t.ID == "" {
		return goerr.New("transcript ID is empty")
	}
	return nil
}
