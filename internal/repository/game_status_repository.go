package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/quangph-dn/rhythm-companion/internal/model"
)

// GameStatusRepo persists per-account progress in the 'game_status' table.
// The list columns (unlocked songs, instruments, highscore ids) are JSON
// arrays, keeping the row shaped like the progress document the game
// client exchanges with the API.
type GameStatusRepo struct{ DB *sql.DB }

func NewGameStatusRepo(db *sql.DB) *GameStatusRepo { return &GameStatusRepo{DB: db} }

// Get fetches the raw progress row without expanding score records.
func (r *GameStatusRepo) Get(ctx context.Context, userID uint64) (model.GameStatus, error) {
	var (
		gs         model.GameStatus
		songsJSON  []byte
		instrJSON  []byte
		scoresJSON []byte
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,user_id,unlocked_songs,unlocked_instruments,highscore,song_token,instrument_token
		 FROM game_status WHERE user_id=? LIMIT 1`,
		userID).Scan(&gs.ID, &gs.UserID, &songsJSON, &instrJSON, &scoresJSON, &gs.SongToken, &gs.InstrumentToken)
	if err == sql.ErrNoRows {
		return gs, ErrNotFound
	}
	if err != nil {
		return gs, err
	}
	if err := json.Unmarshal(songsJSON, &gs.UnlockedSongs); err != nil {
		return gs, err
	}
	if err := json.Unmarshal(instrJSON, &gs.UnlockedInstruments); err != nil {
		return gs, err
	}
	if err := json.Unmarshal(scoresJSON, &gs.Highscore); err != nil {
		return gs, err
	}
	return gs, nil
}

// Load fetches the progress row with its score records expanded. Admin
// views pass expandSongs to also attach song metadata per record.
func (r *GameStatusRepo) Load(ctx context.Context, userID uint64, expandSongs bool) (model.GameStatus, error) {
	gs, err := r.Get(ctx, userID)
	if err != nil {
		return gs, err
	}
	scores := NewScoreRepo(r.DB)
	gs.Scores, err = scores.ListByIDs(ctx, gs.Highscore, expandSongs)
	return gs, err
}

// Ensure creates an empty progress row for the account when none exists.
// INSERT IGNORE rides on the unique user_id index, so concurrent callers
// cannot create two rows and an existing row is left untouched.
func (r *GameStatusRepo) Ensure(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO game_status
			(user_id, unlocked_songs, unlocked_instruments, highscore)
		 VALUES (?, '[]', '[]', '[]')`,
		userID)
	return err
}

// SetFields overwrites the parts of the progress row that are present in
// the update. Nil pointers leave the stored column untouched; non-nil
// values replace it wholesale.
func (r *GameStatusRepo) SetFields(ctx context.Context, userID uint64,
	highscore *[]uint64, songs *[]uint64, instruments *[]string,
	songToken, instrumentToken *int64) (model.GameStatus, error) {

	set := ""
	args := []interface{}{}
	add := func(col string, val interface{}) {
		if set != "" {
			set += ", "
		}
		set += col + "=?"
		args = append(args, val)
	}

	if highscore != nil {
		b, err := json.Marshal(*highscore)
		if err != nil {
			return model.GameStatus{}, err
		}
		add("highscore", string(b))
	}
	if songs != nil {
		b, err := json.Marshal(*songs)
		if err != nil {
			return model.GameStatus{}, err
		}
		add("unlocked_songs", string(b))
	}
	if instruments != nil {
		b, err := json.Marshal(*instruments)
		if err != nil {
			return model.GameStatus{}, err
		}
		add("unlocked_instruments", string(b))
	}
	if songToken != nil {
		add("song_token", *songToken)
	}
	if instrumentToken != nil {
		add("instrument_token", *instrumentToken)
	}

	if set != "" {
		args = append(args, userID)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE game_status SET "+set+" WHERE user_id=?", args...); err != nil {
			return model.GameStatus{}, err
		}
	}
	return r.Get(ctx, userID)
}

// Delete removes the progress row.
func (r *GameStatusRepo) Delete(ctx context.Context, userID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM game_status WHERE user_id=?", userID)
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

// MergeIDs unions two id sets preserving first-seen order: existing ids
// first, then additions not already present. Applying the same additions
// twice yields the same set, which is what makes progress updates
// idempotent.
func MergeIDs(existing, added []uint64) []uint64 {
	seen := make(map[uint64]bool, len(existing)+len(added))
	out := make([]uint64, 0, len(existing)+len(added))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range added {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
