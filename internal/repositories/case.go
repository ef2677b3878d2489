package repositories

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/sqlite"
)

const caseColumns = `id, category, description, generated_text, citizen_name, national_id, city, email,
	document_reference, status, created_at, updated_at`

const nowSQL = `strftime('%Y-%m-%dT%H:%M:%fZ')`

// CaseRepository persists cases in SQLite. Writes go through the single read-write connection and reads through
// the read-only pool.
type CaseRepository struct {
	rw     *sqlx.DB
	ro     *sqlx.DB
	logger *slog.Logger
}

func NewCaseRepository(db *sqlite.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		rw:     sqlx.NewDb(db.ReadWrite, "sqlite3"),
		ro:     sqlx.NewDb(db.ReadOnly, "sqlite3"),
		logger: logger.With("source", "CaseRepository"),
	}
}

type caseRow struct {
	ID                int64          `db:"id"`
	Category          string         `db:"category"`
	Description       string         `db:"description"`
	GeneratedText     string         `db:"generated_text"`
	CitizenName       sql.NullString `db:"citizen_name"`
	NationalID        sql.NullString `db:"national_id"`
	City              sql.NullString `db:"city"`
	Email             sql.NullString `db:"email"`
	DocumentReference sql.NullString `db:"document_reference"`
	Status            string         `db:"status"`
	CreatedAt         timestamp      `db:"created_at"`
	UpdatedAt         timestamp      `db:"updated_at"`
}

func (row caseRow) toModel() *models.Case {
	c := &models.Case{
		ID:                row.ID,
		Category:          models.Category(row.Category),
		Description:       row.Description,
		GeneratedText:     row.GeneratedText,
		Identity:          nil,
		DocumentReference: row.DocumentReference.String,
		Status:            models.Status(row.Status),
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}
	if row.CitizenName.Valid {
		c.Identity = &models.CitizenIdentity{
			Name:       row.CitizenName.String,
			NationalID: row.NationalID.String,
			City:       row.City.String,
			Email:      row.Email.String,
		}
	}
	return c
}

// Create inserts a new case in the created status.
func (r *CaseRepository) Create(ctx context.Context, category models.Category, description string) (*models.Case, error) {
	var row caseRow
	stmt := `INSERT INTO cases (category, description) VALUES (?, ?) RETURNING ` + caseColumns
	if err := r.rw.QueryRowxContext(ctx, stmt, category, description).StructScan(&row); err != nil {
		return nil, errors.Wrap(err, "insert case", slog.String("category", string(category)))
	}
	return row.toModel(), nil
}

// Get returns the case with id or models.ErrNotFound.
func (r *CaseRepository) Get(ctx context.Context, id int64) (*models.Case, error) {
	var row caseRow
	stmt := `SELECT ` + caseColumns + ` FROM cases WHERE id = ?`
	if err := r.ro.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(models.ErrNotFound, "get case", slog.Int64("case_id", id))
		}
		return nil, errors.Wrap(err, "get case", slog.Int64("case_id", id))
	}
	return row.toModel(), nil
}

// SetDraft stores the generated text and moves the case to drafted. Finalized cases are rejected with
// models.ErrInvalidState.
func (r *CaseRepository) SetDraft(ctx context.Context, id int64, text string) (*models.Case, error) {
	var row caseRow
	stmt := `UPDATE cases
SET generated_text = ?, status = 'drafted', updated_at = ` + nowSQL + `
WHERE id = ? AND status IN ('created', 'drafted')
RETURNING ` + caseColumns
	if err := r.rw.QueryRowxContext(ctx, stmt, text, id).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.explainMiss(ctx, id, "set draft")
		}
		return nil, errors.Wrap(err, "set draft", slog.Int64("case_id", id))
	}
	return row.toModel(), nil
}

// Finalize records the identity and document reference of a drafted case. The update only applies to cases that
// are drafted with non-empty text so that concurrent finalizations cannot both succeed.
func (r *CaseRepository) Finalize(
	ctx context.Context,
	id int64,
	identity models.CitizenIdentity,
	documentReference string,
) (*models.Case, error) {
	var row caseRow
	stmt := `UPDATE cases
SET citizen_name = ?, national_id = ?, city = ?, email = NULLIF(?, ''), document_reference = ?,
    status = 'finalized', updated_at = ` + nowSQL + `
WHERE id = ? AND status = 'drafted' AND generated_text <> ''
RETURNING ` + caseColumns
	if err := r.rw.QueryRowxContext(ctx, stmt,
		identity.Name, identity.NationalID, identity.City, identity.Email, documentReference, id,
	).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.explainMiss(ctx, id, "finalize")
		}
		return nil, errors.Wrap(err, "finalize", slog.Int64("case_id", id))
	}
	return row.toModel(), nil
}

// Count returns the number of stored cases.
func (r *CaseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.ro.GetContext(ctx, &count, `SELECT COUNT(*) FROM cases`); err != nil {
		return 0, errors.Wrap(err, "count cases")
	}
	return count, nil
}

// explainMiss tells apart a missing case from one whose status did not allow a conditional update.
func (r *CaseRepository) explainMiss(ctx context.Context, id int64, action string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return errors.Wrap(err, action)
	}
	return errors.Wrap(models.ErrInvalidState, action,
		slog.Int64("case_id", id), slog.String("status", string(current.Status)))
}

// timestamp scans both the driver's parsed time and the raw ISO-8601 text SQLite stores.
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return errors.New("unsupported timestamp type", slog.Any("value", src))
	}
}

func (t *timestamp) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return errors.Wrap(err, "parse timestamp", slog.String("value", s))
	}
	t.Time = parsed.UTC()
	return nil
}
