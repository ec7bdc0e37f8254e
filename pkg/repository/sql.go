package repository

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/m-mizutani/argubots/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// transcriptRow is the table layout of a transcript. Nested values are
// stored as JSON text.
type transcriptRow struct {
	ID           string              `gorm:"primaryKey;size:64"`
	Topic        string              `gorm:"size:512"`
	Participants []string            `gorm:"type:text;serializer:json"`
	Turns        []model.Turn        `gorm:"type:text;serializer:json"`
	Evaluations  []*model.Evaluation `gorm:"type:text;serializer:json"`
	CreatedAt    time.Time           `gorm:"index"`
}

func (transcriptRow) TableName() string { return "transcripts" }

func toRow(t *model.Transcript) *transcriptRow {
	return &transcriptRow{
		ID:           string(t.ID),
		Topic:        t.Topic,
		Participants: t.Participants,
		Turns:        t.Turns,
		Evaluations:  t.Evaluations,
		CreatedAt:    t.CreatedAt,
	}
}

func (r *transcriptRow) toModel() *model.Transcript {
	return &model.Transcript{
		ID:           model.TranscriptID(r.ID),
		Topic:        r.Topic,
		Participants: r.Participants,
		Turns:        r.Turns,
		Evaluations:  r.Evaluations,
		CreatedAt:    r.CreatedAt,
	}
}

// SQL stores transcripts in a relational database through gorm.
type SQL struct {
	db *gorm.DB
}

// NewSQL opens the database and migrates the transcript table. dbType is
// "mysql" or "sqlite"; dsn is a MySQL DSN or a SQLite file path.
func NewSQL(dbType, dsn string) (*SQL, error) {
	var dialector gorm.Dialector
	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, goerr.New("unsupported database type", goerr.V("type", dbType))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("type", dbType))
	}

	if err := db.AutoMigrate(&transcriptRow{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate transcript table")
	}
	return &SQL{db: db}, nil
}

func (r *SQL) PutTranscript(ctx context.Context, t *model.Transcript) error {
	if err := validate(t); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(toRow(t)).Error; err != nil {
		return goerr.Wrap(err, "failed to save transcript", goerr.V("id", t.ID))
	}
	return nil
}

func (r *SQL) GetTranscript(ctx context.Context, id model.TranscriptID) (*model.Transcript, error) {
	var row transcriptRow
	err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, goerr.Wrap(ErrNotFound, "no such transcript", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("id", id))
	}
	return row.toModel(), nil
}

func (r *SQL) ListTranscripts(ctx context.Context, offset, limit int) ([]*model.Transcript, error) {
	tx := r.db.WithContext(ctx).Order("created_at desc").Order("id").Offset(offset)
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []transcriptRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list transcripts")
	}

	result := make([]*model.Transcript, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}

// Close releases the underlying connection pool.
func (r *SQL) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get database handle")
	}
	return sqlDB.Close()
}
