package repositories

import (
	"context"
	"database/sql"

	"kalyana/internal/models"
)

type SurplusRepository interface {
	// CreateWithEvent finds or creates the provider's event by name and inserts the batch in one transaction.
	CreateWithEvent(ctx context.Context, s *models.Surplus) error
	GetByID(ctx context.Context, id int) (*models.Surplus, error)
	ListByProvider(ctx context.Context, providerID, limit int) ([]models.Surplus, error)
	ListByStatus(ctx context.Context, status models.SurplusStatus, limit int) ([]models.Surplus, error)
	CountByStatus(ctx context.Context, status models.SurplusStatus) (int, error)
	// TransitionStatus moves the batch from one status to another; false when it was not in from.
	TransitionStatus(ctx context.Context, id int, from, to models.SurplusStatus) (bool, error)
	// UpdatePhoto sets the photo while the batch is in one of the given statuses.
	UpdatePhoto(ctx context.Context, id int, path string, allowed ...models.SurplusStatus) (bool, error)
}

type surplusRepository struct {
	DB *sql.DB
}

func NewSurplusRepository(db *sql.DB) SurplusRepository {
	return &surplusRepository{DB: db}
}

const surplusColumns = `
	id, provider_id, event_id, event_name, venue_name, provider_name, food_type, quantity_kg,
	COALESCE(estimated_expiry,''), distance_km, COALESCE(provider_location,''),
	provider_latitude, provider_longitude, COALESCE(photo_path,''), status, created_at`

func scanSurplus(row interface{ Scan(...any) error }) (*models.Surplus, error) {
	var (
		s        models.Surplus
		eventID  sql.NullInt64
		distance sql.NullFloat64
		lat, lon sql.NullFloat64
		status   string
	)
	if err := row.Scan(
		&s.ID, &s.ProviderID, &eventID, &s.EventName, &s.VenueName, &s.ProviderName, &s.FoodType, &s.QuantityKg,
		&s.EstimatedExpiry, &distance, &s.ProviderLocation,
		&lat, &lon, &s.PhotoPath, &status, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = models.SurplusStatus(status)
	if eventID.Valid {
		id := int(eventID.Int64)
		s.EventID = &id
	}
	if distance.Valid {
		d := distance.Float64
		s.StatedDistanceKm = &d
	}
	if lat.Valid && lon.Valid {
		la, lo := lat.Float64, lon.Float64
		s.Latitude, s.Longitude = &la, &lo
	}
	return &s, nil
}

func collectSurplus(rows *sql.Rows) ([]models.Surplus, error) {
	defer rows.Close()
	res := []models.Surplus{}
	for rows.Next() {
		s, err := scanSurplus(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}

func (r *surplusRepository) CreateWithEvent(ctx context.Context, s *models.Surplus) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	eventID, err := findOrCreateEvent(ctx, tx, s.ProviderID, s.EventName)
	if err != nil {
		return err
	}
	s.EventID = &eventID
	if s.Status == "" {
		s.Status = models.SurplusPending
	}

	var photo sql.NullString
	if s.PhotoPath != "" {
		photo = sql.NullString{String: s.PhotoPath, Valid: true}
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO surplus (
			provider_id, event_id, event_name, venue_name, provider_name, food_type, quantity_kg,
			estimated_expiry, distance_km, provider_location, provider_latitude, provider_longitude,
			photo_path, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at
	`,
		s.ProviderID, eventID, s.EventName, s.VenueName, s.ProviderName, s.FoodType, s.QuantityKg,
		s.EstimatedExpiry, s.StatedDistanceKm, s.ProviderLocation, s.Latitude, s.Longitude,
		photo, string(s.Status),
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *surplusRepository) GetByID(ctx context.Context, id int) (*models.Surplus, error) {
	return scanSurplus(r.DB.QueryRowContext(ctx, `SELECT `+surplusColumns+` FROM surplus WHERE id=$1`, id))
}

func (r *surplusRepository) ListByProvider(ctx context.Context, providerID, limit int) ([]models.Surplus, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+surplusColumns+` FROM surplus WHERE provider_id=$1 ORDER BY created_at DESC, id DESC`+limitClause(limit),
		providerID,
	)
	if err != nil {
		return nil, err
	}
	return collectSurplus(rows)
}

func (r *surplusRepository) ListByStatus(ctx context.Context, status models.SurplusStatus, limit int) ([]models.Surplus, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+surplusColumns+` FROM surplus WHERE status=$1 ORDER BY created_at DESC, id DESC`+limitClause(limit),
		string(status),
	)
	if err != nil {
		return nil, err
	}
	return collectSurplus(rows)
}

func (r *surplusRepository) CountByStatus(ctx context.Context, status models.SurplusStatus) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM surplus WHERE status=$1`, string(status)).Scan(&n)
	return n, err
}

func (r *surplusRepository) TransitionStatus(ctx context.Context, id int, from, to models.SurplusStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE surplus SET status=$1 WHERE id=$2 AND status=$3`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *surplusRepository) UpdatePhoto(ctx context.Context, id int, path string, allowed ...models.SurplusStatus) (bool, error) {
	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE surplus SET photo_path=$1 WHERE id=$2 AND status = ANY($3)`,
		path, id, pqStringArray(statuses),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
