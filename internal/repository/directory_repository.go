package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

// DirectoryRepo mirrors accounts into the MySQL `users` table read by HRMS.
type DirectoryRepo struct{ DB *sql.DB }

func NewDirectoryRepo(db *sql.DB) *DirectoryRepo { return &DirectoryRepo{DB: db} }

// mysqlDuplicate is the server error number for a unique key violation.
const mysqlDuplicate = 1062

// Create inserts a directory row and returns its ID.
func (r *DirectoryRepo) Create(ctx context.Context, e model.DirectoryEntry, passwordHash string) (uint64, error) {
	email := model.NormalizeEmail(e.Email)
	role := "user"
	if e.Role.IsAdmin() {
		role = "admin"
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (external_id, name, email, phone, role, password) VALUES (?,?,?,?,?,?)",
		e.ExternalID, strings.TrimSpace(e.Name), email, nullable(e.Phone), role, passwordHash)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicate {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a directory row by normalized email.
func (r *DirectoryRepo) GetByEmail(ctx context.Context, email string) (model.DirectoryEntry, error) {
	var (
		e     model.DirectoryEntry
		ext   sql.NullString
		phone sql.NullString
		role  string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,external_id,name,email,phone,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		model.NormalizeEmail(email)).Scan(&e.ID, &ext, &e.Name, &e.Email, &phone, &role, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	e.ExternalID, e.Phone, e.Role = ext.String, phone.String, model.ParseRole(role)
	return e, err
}

// List returns directory rows ordered by name.
func (r *DirectoryRepo) List(ctx context.Context, limit, offset int) ([]model.DirectoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,external_id,name,email,phone,role,created_at,updated_at FROM users ORDER BY name LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DirectoryEntry{}
	for rows.Next() {
		var (
			e     model.DirectoryEntry
			ext   sql.NullString
			phone sql.NullString
			role  string
		)
		if err := rows.Scan(&e.ID, &ext, &e.Name, &e.Email, &phone, &role, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.ExternalID, e.Phone, e.Role = ext.String, phone.String, model.ParseRole(role)
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
