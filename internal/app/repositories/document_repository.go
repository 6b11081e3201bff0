package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oussamael/internhub/internal/app/models"
)

// DocumentRepository handles document and presentation review-state
// queries. Storage of the files themselves is out of scope; only the
// review workflow rows live here.
type DocumentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateDocument inserts a document row.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO documents (internship_id, name, state, uploader_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, doc.InternshipID, doc.Name, doc.State, doc.UploaderID).
		Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// CreatePresentation inserts a presentation row.
func (r *DocumentRepository) CreatePresentation(ctx context.Context, p *models.Presentation) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO presentations (internship_id, title, state)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, p.InternshipID, p.Title, p.State).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting presentation: %w", err)
	}
	return nil
}

// CountDocumentsByState partitions scoped documents by review state.
func (r *DocumentRepository) CountDocumentsByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.ReviewState]int64, int64, error) {
	return r.countByState(ctx, "documents", pred)
}

// CountPresentationsByState partitions scoped presentations by review state.
func (r *DocumentRepository) CountPresentationsByState(ctx context.Context, pred squirrel.Sqlizer) (map[models.ReviewState]int64, int64, error) {
	return r.countByState(ctx, "presentations", pred)
}

func (r *DocumentRepository) countByState(ctx context.Context, table string, pred squirrel.Sqlizer) (map[models.ReviewState]int64, int64, error) {
	sql, args, err := r.sb.Select("state", "COUNT(*)").
		From(table).
		Where(pred).
		GroupBy("state").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("counting %s by state: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[models.ReviewState]int64)
	var total int64
	for rows.Next() {
		var state models.ReviewState
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, 0, fmt.Errorf("scanning state count: %w", err)
		}
		counts[state] = count
		total += count
	}
	return counts, total, rows.Err()
}
