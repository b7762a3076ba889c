package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quangph-dn/rhythm-companion/internal/model"
)

// ScoreRepo persists per-song results in the 'score_records' table. The
// unique (user_id, song_id) index makes Upsert race-free: concurrent
// updates for the same pair land on the same row instead of duplicating it.
type ScoreRepo struct{ DB *sql.DB }

func NewScoreRepo(db *sql.DB) *ScoreRepo { return &ScoreRepo{DB: db} }

// Upsert applies one score delta and returns the id of the affected row.
// Fields absent from the delta keep their stored value; a brand-new row
// falls back to score 0 and state NC. The LAST_INSERT_ID(id) trick makes
// LastInsertId return the existing row's id on the duplicate-key path.
func (r *ScoreRepo) Upsert(ctx context.Context, userID uint64, d model.ScoreDelta) (uint64, error) {
	easyScore := int64(0)
	if d.EasyScore != nil {
		easyScore = *d.EasyScore
	}
	easyState := model.StateNotCleared
	if d.EasyState != nil {
		easyState = *d.EasyState
	}
	hardScore := int64(0)
	if d.HardScore != nil {
		hardScore = *d.HardScore
	}
	hardState := model.StateNotCleared
	if d.HardState != nil {
		hardState = *d.HardState
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO score_records (user_id, song_id, easy_score, easy_state, hard_score, hard_state)
		 VALUES (?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
			id         = LAST_INSERT_ID(id),
			easy_score = IF(?, VALUES(easy_score), easy_score),
			easy_state = IF(?, VALUES(easy_state), easy_state),
			hard_score = IF(?, VALUES(hard_score), hard_score),
			hard_state = IF(?, VALUES(hard_state), hard_state)`,
		userID, d.SongID, easyScore, easyState, hardScore, hardState,
		d.EasyScore != nil, d.EasyState != nil, d.HardScore != nil, d.HardState != nil)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const scoreCols = "id,user_id,song_id,easy_score,easy_state,hard_score,hard_state"

// ListByIDs fetches the score rows for a set of ids. When expandSongs is
// true each record carries its song's catalog metadata, used by the admin
// player view.
func (r *ScoreRepo) ListByIDs(ctx context.Context, ids []uint64, expandSongs bool) ([]model.ScoreRecord, error) {
	out := []model.ScoreRecord{}
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := "SELECT " + scoreCols + " FROM score_records WHERE id IN (" + placeholders + ") ORDER BY id"
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.ScoreRecord
		if err := rows.Scan(&s.ID, &s.UserID, &s.SongID, &s.EasyScore, &s.EasyState, &s.HardScore, &s.HardState); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if expandSongs {
		songs := NewSongRepo(r.DB)
		for i := range out {
			song, err := songs.GetByID(ctx, out[i].SongID)
			if err == nil {
				out[i].Song = &song
			} else if err != ErrNotFound {
				return nil, err
			}
		}
	}
	return out, nil
}

// DeleteByIDs removes the given score rows. Used by the game-status and
// account deletion cascades.
func (r *ScoreRepo) DeleteByIDs(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM score_records WHERE id IN ("+placeholders+")", args...)
	return err
}

// DeleteByUser removes every score belonging to an account.
func (r *ScoreRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM score_records WHERE user_id=?", userID)
	return err
}

// DeleteBySong removes every score referencing a song. Part of the song
// deletion cascade.
func (r *ScoreRepo) DeleteBySong(ctx context.Context, songID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM score_records WHERE song_id=?", songID)
	return err
}
