package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory keeps transcripts in process memory. It is used when no database
// is configured and in tests.
type Memory struct {
	mu          sync.RWMutex
	transcripts map[model.TranscriptID]*model.Transcript
}

func NewMemory() *Memory {
	return &Memory{transcripts: make(map[model.TranscriptID]*model.Transcript)}
}

func (r *Memory) PutTranscript(ctx context.Context, t *model.Transcript) error {
	if err := validate(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts[t.ID] = clone(t)
	return nil
}

func (r *Memory) GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transcripts[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "no such transcript", goerr.V("id", id))
	}
	return clone(t), nil
}

func (r *Memory) ListTranscripts(ctx context.Context, offset, limit int) ([]*model.Transcript, error) {
	r.mu.RLock()
	all := make([]*model.Transcript, 0, len(r.transcripts))
	for _, t := range r.transcripts {
		all = append(all, t)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	result := make([]*model.Transcript, 0, len(all))
	for _, t := range all {
		result = append(result, clone(t))
	}
	return result, nil
}

func clone(t *model.Transcript) *model.Transcript {
	c := *t
	c.Participants = append([]string(nil), t.Participants...)
	c.Turns = append([]model.Turn(nil), t.Turns...)
	c.Evaluations = nil
	for _, e := range t.Evaluations {
		ec := *e
		ec.Violations = append([]string(nil), e.Violations...)
		c.Evaluations = append(c.Evaluations, &ec)
	}
	return &c
}
