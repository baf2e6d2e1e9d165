package repositories

import (
	"context"
	"database/sql"
	"time"

	"kalyana/internal/models"
)

// ReportRepository holds the read-only aggregates behind dashboards and analytics.
type ReportRepository interface {
	Metrics(ctx context.Context) (*models.DashboardMetrics, error)
	// Insights fills every field except CompletionRate, which is derived by the caller.
	Insights(ctx context.Context) (*models.OperationalInsights, error)
	RecentActivity(ctx context.Context, limit int) ([]models.ActivityRow, error)
	MonthlySurplusKg(ctx context.Context, since time.Time) ([]models.MonthlyPoint, error)
	MonthlyCompletedAllocations(ctx context.Context, since time.Time) ([]models.MonthlyPoint, error)
	ComplaintStatusCounts(ctx context.Context) (map[string]int, error)
	TopProviders(ctx context.Context, limit int) ([]models.NamedAmount, error)
	TopNGOs(ctx context.Context, limit int) ([]models.NamedAmount, error)
	ProviderTotals(ctx context.Context, providerID int) (events int, donatedKg float64, err error)
}

type reportRepository struct {
	DB *sql.DB
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{DB: db}
}

func (r *reportRepository) Metrics(ctx context.Context) (*models.DashboardMetrics, error) {
	var m models.DashboardMetrics
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role='provider'),
			(SELECT COUNT(*) FROM users WHERE role='ngo'),
			(SELECT COUNT(*) FROM events),
			(SELECT COALESCE(SUM(quantity_kg),0) FROM surplus),
			(SELECT COUNT(*) FROM allocations),
			(SELECT COUNT(*) FROM complaints WHERE status IN ('Under Review','Escalated'))
	`).Scan(&m.TotalProviders, &m.TotalNGOs, &m.TotalEvents, &m.TotalSurplusKg, &m.TotalAllocations, &m.ActiveComplaints)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *reportRepository) Insights(ctx context.Context) (*models.OperationalInsights, error) {
	var in models.OperationalInsights
	// high-risk batches: expiry text containing a "1", e.g. "1 hour" or "10 mins"
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM allocations WHERE LOWER(status)='completed'),
			(SELECT COUNT(*) FROM allocations WHERE LOWER(status)<>'completed'),
			(SELECT COALESCE(AVG(rating),0) FROM reviews),
			(SELECT COUNT(*) FROM surplus WHERE LOWER(COALESCE(estimated_expiry,'')) LIKE '%1%'),
			(SELECT COUNT(*) FROM complaints WHERE LOWER(status) IN ('under review','escalated')),
			(SELECT COUNT(*) FROM surplus s WHERE NOT EXISTS (SELECT 1 FROM allocations a WHERE a.surplus_id = s.id))
	`).Scan(&in.CompletedAllocations, &in.PendingAllocations, &in.AvgTrustScore, &in.HighRiskBatches,
		&in.OpenComplaints, &in.UnallocatedSurplus)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *reportRepository) RecentActivity(ctx context.Context, limit int) ([]models.ActivityRow, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT ts, module, event, actor, status FROM (
			(SELECT a.created_at AS ts, 'Allocation' AS module, 'Allocation ' || a.status AS event,
			        COALESCE(u.full_name,'NGO') AS actor, a.status AS status
			 FROM allocations a LEFT JOIN users u ON u.id = a.ngo_id
			 ORDER BY a.created_at DESC LIMIT $1)
			UNION ALL
			(SELECT c.created_at, 'Complaint', c.issue_type, COALESCE(u.full_name,'NGO'), c.status
			 FROM complaints c LEFT JOIN users u ON u.id = c.ngo_id
			 ORDER BY c.created_at DESC LIMIT $1)
			UNION ALL
			(SELECT e.created_at, 'Event', e.event_name, COALESCE(u.full_name,'Provider'), 'created'
			 FROM events e LEFT JOIN users u ON u.id = e.provider_id
			 ORDER BY e.created_at DESC LIMIT $1)
		) activity
		ORDER BY ts DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.ActivityRow{}
	for rows.Next() {
		var a models.ActivityRow
		if err := rows.Scan(&a.Timestamp, &a.Module, &a.Event, &a.Actor, &a.Status); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *reportRepository) MonthlySurplusKg(ctx context.Context, since time.Time) ([]models.MonthlyPoint, error) {
	return r.monthly(ctx, `
		SELECT TO_CHAR(created_at,'YYYY-MM'), COALESCE(SUM(quantity_kg),0)
		FROM surplus
		WHERE created_at >= $1
		GROUP BY 1 ORDER BY 1
	`, since)
}

func (r *reportRepository) MonthlyCompletedAllocations(ctx context.Context, since time.Time) ([]models.MonthlyPoint, error) {
	return r.monthly(ctx, `
		SELECT TO_CHAR(created_at,'YYYY-MM'), COUNT(*)
		FROM allocations
		WHERE created_at >= $1 AND LOWER(status)='completed'
		GROUP BY 1 ORDER BY 1
	`, since)
}

func (r *reportRepository) monthly(ctx context.Context, q string, since time.Time) ([]models.MonthlyPoint, error) {
	rows, err := r.DB.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.MonthlyPoint{}
	for rows.Next() {
		var p models.MonthlyPoint
		if err := rows.Scan(&p.Month, &p.Value); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *reportRepository) ComplaintStatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT COALESCE(LOWER(status),'unknown'), COUNT(*) FROM complaints GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		res[status] = n
	}
	return res, rows.Err()
}

func (r *reportRepository) TopProviders(ctx context.Context, limit int) ([]models.NamedAmount, error) {
	return r.named(ctx, `
		SELECT u.full_name, COALESCE(SUM(s.quantity_kg),0) AS donated
		FROM users u
		JOIN surplus s ON s.provider_id = u.id
		WHERE u.role='provider'
		GROUP BY u.id, u.full_name
		ORDER BY donated DESC
		LIMIT $1
	`, limit)
}

func (r *reportRepository) TopNGOs(ctx context.Context, limit int) ([]models.NamedAmount, error) {
	return r.named(ctx, `
		SELECT u.full_name, COUNT(a.id) AS pickups
		FROM users u
		JOIN allocations a ON a.ngo_id = u.id
		WHERE u.role='ngo' AND LOWER(a.status)='completed'
		GROUP BY u.id, u.full_name
		ORDER BY pickups DESC
		LIMIT $1
	`, limit)
}

func (r *reportRepository) named(ctx context.Context, q string, limit int) ([]models.NamedAmount, error) {
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.NamedAmount{}
	for rows.Next() {
		var n models.NamedAmount
		if err := rows.Scan(&n.Name, &n.Value); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r *reportRepository) ProviderTotals(ctx context.Context, providerID int) (int, float64, error) {
	var events int
	var donated float64
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events WHERE provider_id=$1),
			(SELECT COALESCE(SUM(quantity_kg),0) FROM surplus WHERE provider_id=$1)
	`, providerID).Scan(&events, &donated)
	return events, donated, err
}
