package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/argubots/pkg/repository"
	"github.com/m-mizutani/gt"
)

func newTranscript(topic string, createdAt time.Time) *model.Transcript {
	d := model.NewDialogue().
		Add("Alice", "Do you think "+topic+"?").
		Add("Akiko", "Independent animals are less affectionate companions.")
	t := model.NewTranscript(topic, d)
	t.CreatedAt = createdAt
	t.Evaluations = []*model.Evaluation{
		{Speaker: "Alice", Score: 10},
		{Speaker: "Akiko", Score: 8, Violations: []string{"turn 1 repeats turn 0"}},
	}
	return t
}

func testRepository(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := newTranscript("cats are better pets", base)
	newer := newTranscript("cities should ban cars", base.Add(time.Hour))
	newest := newTranscript("homework should be banned", base.Add(2*time.Hour))

	for _, tr := range []*model.Transcript{older, newest, newer} {
		gt.NoError(t, repo.PutTranscript(ctx, tr))
	}

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetTranscript(ctx, newer.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.ID, newer.ID)
		gt.Equal(t, got.Topic, newer.Topic)
		gt.Equal(t, got.Participants, []string{"Alice", "Akiko"})
		gt.Equal(t, got.Turns, newer.Turns)
		gt.A(t, got.Evaluations).Length(2)
		gt.Equal(t, got.Evaluations[1].Violations, []string{"turn 1 repeats turn 0"})
		gt.True(t, got.CreatedAt.Equal(newer.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetTranscript(ctx, model.NewTranscriptID())
		gt.Error(t, err)
		gt.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := repo.ListTranscripts(ctx, 0, 10)
		gt.NoError(t, err)
		gt.A(t, list).Length(3)
		gt.Equal(t, list[0].ID, newest.ID)
		gt.Equal(t, list[1].ID, newer.ID)
		gt.Equal(t, list[2].ID, older.ID)
	})

	t.Run("list with offset and limit", func(t *testing.T) {
		list, err := repo.ListTranscripts(ctx, 1, 1)
		gt.NoError(t, err)
		gt.A(t, list).Length(1)
		gt.Equal(t, list[0].ID, newer.ID)

		list, err = repo.ListTranscripts(ctx, 5, 10)
		gt.NoError(t, err)
		gt.A(t, list).Length(0)
	})

	t.Run("put replaces", func(t *testing.T) {
		updated := *older
		updated.Topic = "cats are still better pets"
		gt.NoError(t, repo.PutTranscript(ctx, &updated))

		got, err := repo.GetTranscript(ctx, older.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.Topic, "cats are still better pets")

		list, err := repo.ListTranscripts(ctx, 0, 0)
		gt.NoError(t, err)
		gt.A(t, list).Length(3)
	})

	t.Run("invalid transcript", func(t *testing.T) {
		gt.Error(t, repo.PutTranscript(ctx, &model.Transcript{}))
		gt.Error(t, repo.PutTranscript(ctx, nil))
	})
}

func TestMemory(t *testing.T) {
	testRepository(t, repository.NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	tr := newTranscript("cats", time.Now())
	gt.NoError(t, repo.PutTranscript(ctx, tr))

	tr.Turns[0].Content = "changed"
	got, err := repo.GetTranscript(ctx, tr.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Turns[0].Content, "Do you think cats?")
}

func TestSQLite(t *testing.T) {
	repo, err := repository.NewSQL("sqlite", filepath.Join(t.TempDir(), "argubots.db"))
	gt.NoError(t, err)
	defer func() { gt.NoError(t, repo.Close()) }()

	testRepository(t, repo)
}

func TestSQLUnsupportedType(t *testing.T) {
	_, err := repository.NewSQL("oracle", "")
	gt.Error(t, err)
}

func TestMySQL(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN is not set")
	}

	repo, err := repository.NewSQL("mysql", dsn)
	gt.NoError(t, err)
	defer repo.Close()

	tr := newTranscript("cats", time.Now().Truncate(time.Second))
	gt.NoError(t, repo.PutTranscript(context.Background(), tr))
	got, err := repo.GetTranscript(context.Background(), tr.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Turns, tr.Turns)
}

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.NewFirestore(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestFirestoreTranscript(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	tr := newTranscript("cats are better pets", time.Now())
	gt.NoError(t, repo.PutTranscript(ctx, tr))

	got, err := repo.GetTranscript(ctx, tr.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.ID, tr.ID)
	gt.Equal(t, got.Turns, tr.Turns)

	_, err = repo.GetTranscript(ctx, model.NewTranscriptID())
	gt.True(t, errors.Is(err, repository.ErrNotFound))

	list, err := repo.ListTranscripts(ctx, 0, 5)
	gt.NoError(t, err)
	gt.True(t, len(list) > 0)
}
