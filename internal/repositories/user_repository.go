package repositories

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"kalyana/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
	// DeleteCascade removes the user together with everything it owns.
	DeleteCascade(ctx context.Context, id int) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, full_name, email, password_hash, role, phone_number, phone_verified, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var phone sql.NullString
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &phone, &u.PhoneVerified, &u.CreatedAt); err != nil {
		return nil, err
	}
	if phone.Valid {
		p := phone.String
		u.PhoneNumber = &p
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (full_name, email, password_hash, role, phone_number, phone_verified)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		user.FullName,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.PasswordHash,
		user.Role,
		user.PhoneNumber,
		user.PhoneVerified,
	).Scan(&user.ID, &user.CreatedAt)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number=$1`, phone))
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY full_name`,
		pq.Array(ids64),
	)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	var args []any

	if filter.Role != "" {
		args = append(args, filter.Role)
		q += ` AND role=$` + itoa(len(args))
	}
	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		args = append(args, "%"+s+"%")
		n := itoa(len(args))
		q += ` AND (LOWER(full_name) LIKE $` + n + ` OR LOWER(email) LIKE $` + n + `)`
	}
	q += ` ORDER BY id DESC`

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()
	res := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func (r *userRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[string]int{}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		res[role] = n
	}
	return res, rows.Err()
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepository) DeleteCascade(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, id).Scan(&exists); err != nil {
		return err
	}

	stmts := []string{
		`DELETE FROM allocations WHERE provider_id=$1 OR ngo_id=$1`,
		`DELETE FROM reviews WHERE provider_id=$1 OR ngo_id=$1`,
		`DELETE FROM complaints WHERE provider_id=$1 OR ngo_id=$1`,
		`DELETE FROM surplus WHERE provider_id=$1`,
		`DELETE FROM events WHERE provider_id=$1`,
		`DELETE FROM users WHERE id=$1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
