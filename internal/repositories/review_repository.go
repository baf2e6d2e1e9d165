package repositories

import (
	"context"
	"database/sql"

	"kalyana/internal/models"
)

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	ListByProvider(ctx context.Context, providerID int) ([]models.Review, error)
	ListByNGO(ctx context.Context, ngoID int) ([]models.Review, error)
	AverageForProvider(ctx context.Context, providerID int) (float64, error)
	// AverageForNGO is the NGO trust score: the mean rating of reviews it has written.
	AverageForNGO(ctx context.Context, ngoID int) (float64, error)
	AveragesByProvider(ctx context.Context) (map[int]float64, error)
}

type reviewRepository struct {
	DB *sql.DB
}

func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{DB: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *models.Review) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO reviews (ngo_id, provider_id, rating, comment)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`, rv.NGOID, rv.ProviderID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt)
}

const reviewListQuery = `
	SELECT r.id, r.ngo_id, r.provider_id, r.rating, COALESCE(r.comment,''), r.created_at,
	       COALESCE(n.full_name,''), COALESCE(p.full_name,'')
	FROM reviews r
	LEFT JOIN users n ON n.id = r.ngo_id
	LEFT JOIN users p ON p.id = r.provider_id
`

func (r *reviewRepository) ListByProvider(ctx context.Context, providerID int) ([]models.Review, error) {
	return r.list(ctx, reviewListQuery+` WHERE r.provider_id=$1 ORDER BY r.created_at DESC`, providerID)
}

func (r *reviewRepository) ListByNGO(ctx context.Context, ngoID int) ([]models.Review, error) {
	return r.list(ctx, reviewListQuery+` WHERE r.ngo_id=$1 ORDER BY r.created_at DESC`, ngoID)
}

func (r *reviewRepository) list(ctx context.Context, q string, args ...any) ([]models.Review, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.NGOID, &rv.ProviderID, &rv.Rating, &rv.Comment, &rv.CreatedAt,
			&rv.NGOName, &rv.ProviderName); err != nil {
			return nil, err
		}
		res = append(res, rv)
	}
	return res, rows.Err()
}

func (r *reviewRepository) AverageForProvider(ctx context.Context, providerID int) (float64, error) {
	var avg float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating),0) FROM reviews WHERE provider_id=$1`, providerID).Scan(&avg)
	return avg, err
}

func (r *reviewRepository) AverageForNGO(ctx context.Context, ngoID int) (float64, error) {
	var avg float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating),0) FROM reviews WHERE ngo_id=$1`, ngoID).Scan(&avg)
	return avg, err
}

func (r *reviewRepository) AveragesByProvider(ctx context.Context) (map[int]float64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT provider_id, AVG(rating) FROM reviews GROUP BY provider_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[int]float64{}
	for rows.Next() {
		var id int
		var avg float64
		if err := rows.Scan(&id, &avg); err != nil {
			return nil, err
		}
		res[id] = avg
	}
	return res, rows.Err()
}
