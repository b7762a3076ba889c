package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/quangph-dn/rhythm-companion/internal/model"
)

// SongRepo persists catalog entries in the 'songs' table. Asset columns
// hold /uploads/<name> paths into the blob store; blob lifecycle itself is
// the handler's job since deletes there are best-effort.
type SongRepo struct{ DB *sql.DB }

func NewSongRepo(db *sql.DB) *SongRepo { return &SongRepo{DB: db} }

const songCols = "id,song_name,composer,genre,bpm,info,is_default,audio_clip,easy_midi,hard_midi,easy_note_timings,hard_note_timings"

func scanSong(row interface{ Scan(...interface{}) error }) (model.Song, error) {
	var (
		s        model.Song
		easyJSON []byte
		hardJSON []byte
	)
	err := row.Scan(&s.ID, &s.SongName, &s.Composer, &s.Genre, &s.BPM, &s.Info,
		&s.IsDefault, &s.AudioClip, &s.EasyMidi, &s.HardMidi, &easyJSON, &hardJSON)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(easyJSON, &s.EasyNoteTimings); err != nil {
		return s, err
	}
	if err := json.Unmarshal(hardJSON, &s.HardNoteTimings); err != nil {
		return s, err
	}
	return s, nil
}

// Create inserts a catalog row and returns the stored song.
func (r *SongRepo) Create(ctx context.Context, s model.Song) (model.Song, error) {
	easyJSON, err := json.Marshal(timingsOrEmpty(s.EasyNoteTimings))
	if err != nil {
		return model.Song{}, err
	}
	hardJSON, err := json.Marshal(timingsOrEmpty(s.HardNoteTimings))
	if err != nil {
		return model.Song{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO songs
			(song_name, composer, genre, bpm, info, is_default,
			 audio_clip, easy_midi, hard_midi, easy_note_timings, hard_note_timings)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.SongName, s.Composer, s.Genre, s.BPM, s.Info, s.IsDefault,
		s.AudioClip, s.EasyMidi, s.HardMidi, string(easyJSON), string(hardJSON))
	if err != nil {
		return model.Song{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Song{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetAll returns the whole catalog ordered by id.
func (r *SongRepo) GetAll(ctx context.Context) ([]model.Song, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+songCols+" FROM songs ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []model.Song{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// GetByID fetches one catalog entry.
func (r *SongRepo) GetByID(ctx context.Context, id uint64) (model.Song, error) {
	s, err := scanSong(r.DB.QueryRowContext(ctx,
		"SELECT "+songCols+" FROM songs WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// Update overwrites the catalog row with the given song value. Callers do
// the fallback-to-existing merge first (fetch, overlay supplied fields,
// save), mirroring the partial-update semantics of the admin API.
func (r *SongRepo) Update(ctx context.Context, s model.Song) (model.Song, error) {
	easyJSON, err := json.Marshal(timingsOrEmpty(s.EasyNoteTimings))
	if err != nil {
		return model.Song{}, err
	}
	hardJSON, err := json.Marshal(timingsOrEmpty(s.HardNoteTimings))
	if err != nil {
		return model.Song{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE songs SET
			song_name=?, composer=?, genre=?, bpm=?, info=?, is_default=?,
			audio_clip=?, easy_midi=?, hard_midi=?, easy_note_timings=?, hard_note_timings=?
		 WHERE id=?`,
		s.SongName, s.Composer, s.Genre, s.BPM, s.Info, s.IsDefault,
		s.AudioClip, s.EasyMidi, s.HardMidi, string(easyJSON), string(hardJSON), s.ID)
	if err != nil {
		return model.Song{}, err
	}
	if err := checkExisted(ctx, r.DB, res, "songs", s.ID); err != nil {
		return model.Song{}, err
	}
	return r.GetByID(ctx, s.ID)
}

// Delete removes the catalog row only; blob and score cleanup belong to
// the handler's cascade.
func (r *SongRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM songs WHERE id=?", id)
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

// timingsOrEmpty keeps the JSON columns as [] instead of null for songs
// uploaded without chart timings.
func timingsOrEmpty(t []float64) []float64 {
	if t == nil {
		return []float64{}
	}
	return t
}
