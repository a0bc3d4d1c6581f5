package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	original_name TEXT NOT NULL,
	source_path TEXT NOT NULL,
	archived_path TEXT,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	pages INTEGER NOT NULL DEFAULT 0,
	text_origin TEXT,
	detected_lang TEXT,
	lang_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_kind TEXT,
	error_message TEXT,
	report JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, original_name, source_path, size_bytes, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		doc.ID, doc.OriginalName, doc.SourcePath, doc.SizeBytes, string(doc.Status), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, original_name, source_path, archived_path, size_bytes, pages, text_origin,
	detected_lang, lang_confidence, status, error_kind, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errKind, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_kind = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), errKind, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepository) SaveExtraction(ctx context.Context, id string, ext domain.Extraction, lang string, confidence float64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET pages = $2, size_bytes = $3, text_origin = $4, detected_lang = $5, lang_confidence = $6, updated_at = $7
WHERE id = $1
`, id, ext.Pages, ext.SizeBytes, string(ext.Origin), lang, confidence, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return nil
}

func (r *DocumentRepository) SaveReport(ctx context.Context, id string, archivedPath string, report domain.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
UPDATE documents
SET archived_path = $2, report = $3, updated_at = $4
WHERE id = $1
`, id, archivedPath, reportJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListByStatus(ctx context.Context, status domain.DocumentStatus, limit int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, original_name, source_path, archived_path, size_bytes, pages, text_origin,
	detected_lang, lang_confidence, status, error_kind, error_message, created_at, updated_at
FROM documents
WHERE status = $1
ORDER BY updated_at DESC
LIMIT $2
`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var archivedPath, textOrigin, detectedLang, errKind, errMessage sql.NullString
	var status string

	err := row.Scan(
		&doc.ID, &doc.OriginalName, &doc.SourcePath, &archivedPath, &doc.SizeBytes, &doc.Pages,
		&textOrigin, &detectedLang, &doc.LangConfidence, &status, &errKind, &errMessage,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.ArchivedPath = archivedPath.String
	doc.TextOrigin = domain.TextOrigin(textOrigin.String)
	doc.DetectedLang = detectedLang.String
	doc.ErrorKind = errKind.String
	doc.Error = errMessage.String
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}
