package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"kalyana/internal/models"
)

// AllocationTx is the set of row-locking operations available inside AllocationRepository.WithTx.
type AllocationTx interface {
	GetSurplusForUpdate(ctx context.Context, surplusID int) (*models.Surplus, error)
	GetAllocationForUpdate(ctx context.Context, allocationID int) (*models.Allocation, error)
	// ActiveCodeExists reports whether code is held by an allocation that is still in progress.
	ActiveCodeExists(ctx context.Context, code string) (bool, error)
	CreateAllocation(ctx context.Context, a *models.Allocation) error
	UpdateSurplusStatus(ctx context.Context, surplusID int, status models.SurplusStatus) error
	UpdateAllocationStatus(ctx context.Context, allocationID int, status models.AllocationStatus) error
}

type AllocationRepository interface {
	// WithTx runs fn in one transaction; it commits when fn returns nil.
	WithTx(ctx context.Context, fn func(tx AllocationTx) error) error

	GetByID(ctx context.Context, id int) (*models.Allocation, error)
	ListByProvider(ctx context.Context, providerID, limit int) ([]models.Allocation, error)
	ListByNGO(ctx context.Context, ngoID int, status models.AllocationStatus) ([]models.Allocation, error)
	ListRecent(ctx context.Context, limit int) ([]models.Allocation, error)
	CountForProvider(ctx context.Context, providerID int, statuses ...models.AllocationStatus) (int, error)
	CountForNGO(ctx context.Context, ngoID int, statuses ...models.AllocationStatus) (int, error)
	// ProviderIDsForNGO lists providers the NGO has received allocations from.
	ProviderIDsForNGO(ctx context.Context, ngoID int) ([]int, error)
}

type allocationRepository struct {
	DB *sql.DB
}

func NewAllocationRepository(db *sql.DB) AllocationRepository {
	return &allocationRepository{DB: db}
}

func (r *allocationRepository) WithTx(ctx context.Context, fn func(tx AllocationTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&allocationTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type allocationTx struct {
	tx *sql.Tx
}

func (t *allocationTx) GetSurplusForUpdate(ctx context.Context, surplusID int) (*models.Surplus, error) {
	return scanSurplus(t.tx.QueryRowContext(ctx,
		`SELECT `+surplusColumns+` FROM surplus WHERE id=$1 FOR UPDATE`, surplusID))
}

func (t *allocationTx) GetAllocationForUpdate(ctx context.Context, allocationID int) (*models.Allocation, error) {
	var a models.Allocation
	var status string
	var pickup sql.NullTime
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, surplus_id, provider_id, ngo_id, status, pickup_time, COALESCE(pickup_code,''), created_at
		FROM allocations
		WHERE id=$1
		FOR UPDATE
	`, allocationID).Scan(&a.ID, &a.SurplusID, &a.ProviderID, &a.NGOID, &status, &pickup, &a.PickupCode, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.AllocationStatus(status)
	if pickup.Valid {
		pt := pickup.Time
		a.PickupTime = &pt
	}
	return &a, nil
}

func (t *allocationTx) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM allocations WHERE pickup_code=$1 AND status = ANY($2))`,
		code, pqStringArray(activeStatusStrings()),
	).Scan(&exists)
	return exists, err
}

func (t *allocationTx) CreateAllocation(ctx context.Context, a *models.Allocation) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO allocations (surplus_id, provider_id, ngo_id, status, pickup_time, pickup_code)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, a.SurplusID, a.ProviderID, a.NGOID, string(a.Status), a.PickupTime, a.PickupCode).Scan(&a.ID, &a.CreatedAt)
	return mapError(err)
}

func (t *allocationTx) UpdateSurplusStatus(ctx context.Context, surplusID int, status models.SurplusStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE surplus SET status=$1 WHERE id=$2`, string(status), surplusID)
	return err
}

func (t *allocationTx) UpdateAllocationStatus(ctx context.Context, allocationID int, status models.AllocationStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE allocations SET status=$1 WHERE id=$2`, string(status), allocationID)
	return err
}

func activeStatusStrings() []string {
	res := make([]string, len(models.ActiveAllocationStatuses))
	for i, s := range models.ActiveAllocationStatuses {
		res[i] = string(s)
	}
	return res
}

// ===== listings =====

const allocationListQuery = `
	SELECT a.id, a.surplus_id, a.provider_id, a.ngo_id, a.status, a.pickup_time, COALESCE(a.pickup_code,''), a.created_at,
	       COALESCE(s.food_type,''), COALESCE(s.quantity_kg,0),
	       COALESCE(n.full_name,''), COALESCE(p.full_name,'')
	FROM allocations a
	LEFT JOIN surplus s ON s.id = a.surplus_id
	LEFT JOIN users n ON n.id = a.ngo_id
	LEFT JOIN users p ON p.id = a.provider_id
`

func collectAllocations(rows *sql.Rows) ([]models.Allocation, error) {
	defer rows.Close()
	res := []models.Allocation{}
	for rows.Next() {
		var (
			a      models.Allocation
			status string
			pickup sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.SurplusID, &a.ProviderID, &a.NGOID, &status, &pickup, &a.PickupCode, &a.CreatedAt,
			&a.FoodType, &a.QuantityKg, &a.NGOName, &a.ProviderName); err != nil {
			return nil, err
		}
		a.Status = models.AllocationStatus(status)
		if pickup.Valid {
			t := pickup.Time
			a.PickupTime = &t
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *allocationRepository) GetByID(ctx context.Context, id int) (*models.Allocation, error) {
	rows, err := r.DB.QueryContext(ctx, allocationListQuery+` WHERE a.id=$1`, id)
	if err != nil {
		return nil, err
	}
	list, err := collectAllocations(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, sql.ErrNoRows
	}
	return &list[0], nil
}

func (r *allocationRepository) ListByProvider(ctx context.Context, providerID, limit int) ([]models.Allocation, error) {
	rows, err := r.DB.QueryContext(ctx,
		allocationListQuery+` WHERE a.provider_id=$1 ORDER BY a.created_at DESC, a.id DESC`+limitClause(limit),
		providerID,
	)
	if err != nil {
		return nil, err
	}
	return collectAllocations(rows)
}

func (r *allocationRepository) ListByNGO(ctx context.Context, ngoID int, status models.AllocationStatus) ([]models.Allocation, error) {
	q := allocationListQuery + ` WHERE a.ngo_id=$1`
	args := []any{ngoID}
	if status != "" {
		q += ` AND a.status=$2`
		args = append(args, string(status))
	}
	rows, err := r.DB.QueryContext(ctx, q+` ORDER BY a.created_at DESC, a.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collectAllocations(rows)
}

func (r *allocationRepository) ListRecent(ctx context.Context, limit int) ([]models.Allocation, error) {
	rows, err := r.DB.QueryContext(ctx, allocationListQuery+` ORDER BY a.created_at DESC, a.id DESC`+limitClause(limit))
	if err != nil {
		return nil, err
	}
	return collectAllocations(rows)
}

func (r *allocationRepository) CountForProvider(ctx context.Context, providerID int, statuses ...models.AllocationStatus) (int, error) {
	return r.countBy(ctx, "provider_id", providerID, statuses)
}

func (r *allocationRepository) CountForNGO(ctx context.Context, ngoID int, statuses ...models.AllocationStatus) (int, error) {
	return r.countBy(ctx, "ngo_id", ngoID, statuses)
}

func (r *allocationRepository) countBy(ctx context.Context, column string, id int, statuses []models.AllocationStatus) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM allocations WHERE %s=$1`, column)
	args := []any{id}
	if len(statuses) > 0 {
		ss := make([]string, len(statuses))
		for i, s := range statuses {
			ss[i] = string(s)
		}
		q += ` AND status = ANY($2)`
		args = append(args, pqStringArray(ss))
	}
	var n int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *allocationRepository) ProviderIDsForNGO(ctx context.Context, ngoID int) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT provider_id FROM allocations WHERE ngo_id=$1 AND provider_id IS NOT NULL ORDER BY provider_id`,
		ngoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
