package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const transcriptCollection = "transcripts"

// Firestore implements Repository interface using Firestore
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}
	return &Firestore{client: client}, nil
}

func (r *Firestore) PutTranscript(ctx context.Context, t *model.Transcript) error {
	if err := validate(t); err != nil {
		return err
	}

	doc := r.client.Collection(transcriptCollection).Doc(string(t.ID))
	if _, err := doc.Set(ctx, t); err != nil {
		return goerr.Wrap(err, "failed to put transcript", goerr.V("id", t.ID))
	}
	return nil
}

func (r *Firestore) GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	snap, err := r.client.Collection(transcriptCollection).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, goerr.Wrap(ErrNotFound, "no such transcript", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("id", id))
	}

	var t model.Transcript
	if err := snap.DataTo(&t); err != nil {
		return nil, goerr.Wrap(err, "failed to decode transcript", goerr.V("id", id))
	}
	return &t, nil
}

func (r *Firestore) ListTranscripts(ctx context.Context, offset, limit int) ([]*model.Transcript, error) {
	q := r.client.Collection(transcriptCollection).
		OrderBy("created_at", firestore.Desc).
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.Transcript
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate transcripts")
		}

		var t model.Transcript
		if err := snap.DataTo(&t); err != nil {
			return nil, goerr.Wrap(err, "failed to decode transcript", goerr.V("id", snap.Ref.ID))
		}
		result = append(result, &t)
	}
	return result, nil
}

// Close closes the Firestore client.
func (r *Firestore) Close() error {
	return r.client.Close()
}
