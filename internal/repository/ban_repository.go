package repository

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/quangph-dn/rhythm-companion/internal/model"
)

// BanRepo persists moderation bans in the 'bans' table. A ban is active
// when expires_at is NULL or still in the future; at most one active ban
// may exist per account at any time.
type BanRepo struct{ DB *sql.DB }

func NewBanRepo(db *sql.DB) *BanRepo { return &BanRepo{DB: db} }

const banCols = "id,user_id,reason,issued_at,expires_at,banned_by"

// GetActiveByUser returns the most recently issued active ban for the
// account, or ErrNotFound when none is in force.
func (r *BanRepo) GetActiveByUser(ctx context.Context, userID uint64) (model.Ban, error) {
	var b model.Ban
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+banCols+` FROM bans
		 WHERE user_id=? AND (expires_at IS NULL OR expires_at > UTC_TIMESTAMP())
		 ORDER BY issued_at DESC LIMIT 1`,
		userID).Scan(&b.ID, &b.UserID, &b.Reason, &b.IssuedAt, &b.ExpiresAt, &b.BannedBy)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	return b, err
}

// Create issues a new ban. The existence check and the insert run inside
// one transaction with the account's ban rows locked, so two concurrent
// moderation requests cannot both slip past the active-ban check. When the
// user has no ban rows yet both transactions take gap locks and one of them
// deadlocks on insert; the loser is re-run, where it now sees the winner's
// row and reports ErrAlreadyBanned instead of a server error.
func (r *BanRepo) Create(ctx context.Context, userID uint64, reason string, expiresAt *time.Time, bannedBy uint64) (model.Ban, error) {
	ban, err := r.createOnce(ctx, userID, reason, expiresAt, bannedBy)
	if isDeadlock(err) {
		ban, err = r.createOnce(ctx, userID, reason, expiresAt, bannedBy)
	}
	return ban, err
}

func (r *BanRepo) createOnce(ctx context.Context, userID uint64, reason string, expiresAt *time.Time, bannedBy uint64) (model.Ban, error) {
	var out model.Ban

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback() }()

	// Lock existing rows for this user to serialize concurrent ban creation.
	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bans
		 WHERE user_id=? AND (expires_at IS NULL OR expires_at > UTC_TIMESTAMP())
		 FOR UPDATE`,
		userID).Scan(&active)
	if err != nil {
		return out, err
	}
	if active > 0 {
		return out, ErrAlreadyBanned
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO bans (user_id, reason, expires_at, banned_by) VALUES (?,?,?,?)",
		userID, reason, expiresAt, bannedBy)
	if err != nil {
		return out, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return out, err
	}
	if err := tx.Commit(); err != nil {
		return out, err
	}

	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a ban by id.
func (r *BanRepo) GetByID(ctx context.Context, id uint64) (model.Ban, error) {
	var b model.Ban
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+banCols+" FROM bans WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.UserID, &b.Reason, &b.IssuedAt, &b.ExpiresAt, &b.BannedBy)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	return b, err
}

// Update changes reason and/or expiry in place. reason=="" keeps the
// current reason; setExpiry=false keeps the current expiry (expiresAt may
// legitimately be nil to make a ban permanent).
func (r *BanRepo) Update(ctx context.Context, id uint64, reason string, expiresAt *time.Time, setExpiry bool) (model.Ban, error) {
	var (
		res sql.Result
		err error
	)
	if setExpiry {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE bans SET reason = IF(? = '', reason, ?), expires_at=? WHERE id=?",
			reason, reason, expiresAt, id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE bans SET reason = IF(? = '', reason, ?) WHERE id=?",
			reason, reason, id)
	}
	if err != nil {
		return model.Ban{}, err
	}
	if err := checkExisted(ctx, r.DB, res, "bans", id); err != nil {
		return model.Ban{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a ban row.
func (r *BanRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bans WHERE id=?", id)
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

// DeleteForUser removes every ban belonging to an account. Used by the
// account-deletion cascade.
func (r *BanRepo) DeleteForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM bans WHERE user_id=?", userID)
	return err
}

// SweepExpired deletes bans whose expiry passed more than the grace period
// ago. Expired rows are already inactive at query time; the sweep only
// keeps the table from growing without bound.
func (r *BanRepo) SweepExpired(ctx context.Context, grace time.Duration) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM bans WHERE expires_at IS NOT NULL AND expires_at < ?",
		time.Now().UTC().Add(-grace))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartExpirySweep runs SweepExpired on a fixed interval until the context
// is cancelled. Intended to be launched once from main as a goroutine.
func (r *BanRepo) StartExpirySweep(ctx context.Context, every, grace time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := r.SweepExpired(ctx, grace)
			if err != nil {
				log.Printf("ban sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("ban sweep removed %d expired bans", n)
			}
		}
	}
}
