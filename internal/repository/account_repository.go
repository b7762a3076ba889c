package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quangph-dn/rhythm-companion/internal/model"
	"github.com/quangph-dn/rhythm-companion/internal/utils"
)

// AccountRepo persists accounts in the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountCols = "id,name,email,password_hash,is_admin,created_at,updated_at"

// Create inserts an account and returns its ID. The plaintext password is
// hashed here; it never reaches the table. A duplicate email trips the
// unique index and is reported as ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, name, email, password string, isAdmin bool, cost int) (uint64, error) {
	email = strings.TrimSpace(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (name, email, password_hash, is_admin) VALUES (?,?,?,?)",
		name, email, hash, isAdmin)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by its exact email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.TrimSpace(email)
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1",
		email).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// ListPlayers returns every non-admin account for the moderation panel.
func (r *AccountRepo) ListPlayers(ctx context.Context) ([]model.Account, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE is_admin=0 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, a)
	}
	return players, rows.Err()
}

// UpdateInfo changes name and/or email. Empty arguments leave the current
// value in place. A duplicate email is reported as ErrEmailExists.
func (r *AccountRepo) UpdateInfo(ctx context.Context, id uint64, name, email string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE accounts SET
			name  = IF(? = '', name, ?),
			email = IF(? = '', email, ?)
		WHERE id=?`,
		name, name, email, email, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return checkExisted(ctx, r.DB, res, "accounts", id)
}

// UpdatePassword stores a new bcrypt hash for the account.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return checkExisted(ctx, r.DB, res, "accounts", id)
}

// Delete removes the account row. Dependent game data is removed by the
// caller; the cascade is application-level, not a foreign key.
func (r *AccountRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM accounts WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// checkExisted distinguishes "row absent" from "update was a no-op": MySQL
// reports zero affected rows for both, so when nothing changed we probe for
// the row before deciding on ErrNotFound.
func checkExisted(ctx context.Context, db *sql.DB, res sql.Result, table string, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}
