package repositories

import (
	"context"
	"database/sql"

	"kalyana/internal/models"
)

type ComplaintRepository interface {
	Create(ctx context.Context, c *models.Complaint) error
	ListByProvider(ctx context.Context, providerID int) ([]models.Complaint, error)
	ListByNGO(ctx context.Context, ngoID, limit int) ([]models.Complaint, error)
	ListRecent(ctx context.Context, limit int) ([]models.Complaint, error)
	// UpdateStatus returns sql.ErrNoRows when the complaint does not exist.
	UpdateStatus(ctx context.Context, id int, status string) error
}

type complaintRepository struct {
	DB *sql.DB
}

func NewComplaintRepository(db *sql.DB) ComplaintRepository {
	return &complaintRepository{DB: db}
}

func (r *complaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	if c.Status == "" {
		c.Status = models.ComplaintUnderReview
	}
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO complaints (ngo_id, provider_id, issue_type, description, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, c.NGOID, c.ProviderID, c.IssueType, c.Description, c.Status).Scan(&c.ID, &c.CreatedAt)
}

const complaintListQuery = `
	SELECT c.id, c.ngo_id, c.provider_id, c.issue_type, c.description, c.status, c.created_at,
	       COALESCE(n.full_name,''), COALESCE(p.full_name,'')
	FROM complaints c
	LEFT JOIN users n ON n.id = c.ngo_id
	LEFT JOIN users p ON p.id = c.provider_id
`

func (r *complaintRepository) ListByProvider(ctx context.Context, providerID int) ([]models.Complaint, error) {
	return r.list(ctx, complaintListQuery+` WHERE c.provider_id=$1 ORDER BY c.created_at DESC`, providerID)
}

func (r *complaintRepository) ListByNGO(ctx context.Context, ngoID, limit int) ([]models.Complaint, error) {
	return r.list(ctx, complaintListQuery+` WHERE c.ngo_id=$1 ORDER BY c.created_at DESC`+limitClause(limit), ngoID)
}

func (r *complaintRepository) ListRecent(ctx context.Context, limit int) ([]models.Complaint, error) {
	return r.list(ctx, complaintListQuery+` ORDER BY c.created_at DESC`+limitClause(limit))
}

func (r *complaintRepository) list(ctx context.Context, q string, args ...any) ([]models.Complaint, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Complaint{}
	for rows.Next() {
		var (
			c          models.Complaint
			providerID sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.NGOID, &providerID, &c.IssueType, &c.Description, &c.Status, &c.CreatedAt,
			&c.NGOName, &c.ProviderName); err != nil {
			return nil, err
		}
		if providerID.Valid {
			id := int(providerID.Int64)
			c.ProviderID = &id
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE complaints SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
