package repositories

import (
	"context"
	"database/sql"
	"time"

	"kalyana/internal/models"
)

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	ListByProvider(ctx context.Context, providerID int) ([]models.Event, error)
	// ListRecent returns the newest events with provider name and surplus count filled.
	ListRecent(ctx context.Context, limit int) ([]models.Event, error)
}

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{DB: db}
}

func (r *eventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.EventDate.IsZero() {
		e.EventDate = time.Now().UTC()
	}
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO events (provider_id, event_name, event_date, guest_count)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`, e.ProviderID, e.EventName, e.EventDate, e.GuestCount).Scan(&e.ID, &e.CreatedAt)
}

func (r *eventRepository) ListByProvider(ctx context.Context, providerID int) ([]models.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT e.id, e.provider_id, e.event_name, e.event_date, COALESCE(e.guest_count,0), e.created_at,
		       (SELECT COUNT(*) FROM surplus s WHERE s.event_id = e.id), ''
		FROM events e
		WHERE e.provider_id=$1
		ORDER BY e.event_date DESC
	`, providerID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *eventRepository) ListRecent(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT e.id, e.provider_id, e.event_name, e.event_date, COALESCE(e.guest_count,0), e.created_at,
		       (SELECT COUNT(*) FROM surplus s WHERE s.event_id = e.id),
		       COALESCE(u.full_name,'')
		FROM events e
		LEFT JOIN users u ON u.id = e.provider_id
		ORDER BY e.created_at DESC
	`+limitClause(limit))
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]models.Event, error) {
	defer rows.Close()
	res := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.ProviderID, &e.EventName, &e.EventDate, &e.GuestCount, &e.CreatedAt,
			&e.SurplusCount, &e.ProviderName); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// findOrCreateEvent looks up an event by (provider, name) inside tx and creates it when missing.
func findOrCreateEvent(ctx context.Context, tx *sql.Tx, providerID int, name string) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM events WHERE provider_id=$1 AND event_name=$2 ORDER BY id LIMIT 1`,
		providerID, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO events (provider_id, event_name, event_date, guest_count)
		VALUES ($1,$2,$3,0)
		RETURNING id
	`, providerID, name, time.Now().UTC()).Scan(&id)
	return id, err
}
