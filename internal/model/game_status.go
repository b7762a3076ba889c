package model

// GameStatusUpdate is the progress update payload. Highscore entries are
// merged (scores upserted, ids unioned into the existing set); the pointer
// fields replace the stored value wholesale when present and are ignored
// when nil.
type GameStatusUpdate struct {
	Highscore           []ScoreDelta `json:"highscore"`
	UnlockedSongs       *[]uint64    `json:"unlocked_songs"`
	UnlockedInstruments *[]string    `json:"unlocked_instruments"`
	SongToken           *int64       `json:"song_token"`
	InstrumentToken     *int64       `json:"instrument_token"`
}

// GameStatus is the per-account progress document, one row per non-admin
// account in the `game_status` table.  The list columns are stored as JSON
// arrays in MySQL, mirroring the document shape the game client consumes.
//
//  UnlockedSongs       – song ids the player has unlocked.
//  UnlockedInstruments – instrument identifiers (free-form strings).
//  Highscore           – ids of the player's ScoreRecord rows.
//  SongToken           – unlock currency for songs.
//  InstrumentToken     – unlock currency for instruments.
type GameStatus struct {
	ID                  uint64   `json:"id"`
	UserID              uint64   `json:"userId"`
	UnlockedSongs       []uint64 `json:"unlocked_songs"`
	UnlockedInstruments []string `json:"unlocked_instruments"`
	Highscore           []uint64 `json:"-"`
	SongToken           int64    `json:"song_token"`
	InstrumentToken     int64    `json:"instrument_token"`

	// Scores carries the expanded ScoreRecord rows referenced by Highscore.
	Scores []ScoreRecord `json:"highscore"`
}
