package model

// Completion states for a difficulty tier of a song.  NC = not cleared,
// C = cleared, FC = full combo, AP = all perfect.
const (
	StateNotCleared = "NC"
	StateCleared    = "C"
	StateFullCombo  = "FC"
	StateAllPerfect = "AP"
)

// ValidState reports whether s is one of the recognised completion states.
func ValidState(s string) bool {
	switch s {
	case StateNotCleared, StateCleared, StateFullCombo, StateAllPerfect:
		return true
	}
	return false
}

// ScoreDelta is one entry of a progress update payload. Nil fields were
// absent from the request and must leave the stored value untouched; on
// first insert they fall back to score 0 and state "NC".
type ScoreDelta struct {
	SongID    uint64  `json:"song_id"`
	EasyScore *int64  `json:"easyScore"`
	EasyState *string `json:"easyState"`
	HardScore *int64  `json:"hardScore"`
	HardState *string `json:"hardState"`
}

// ScoreRecord holds one account's best results for one song, one column per
// difficulty tier.  The (UserID, SongID) pair is unique in the
// `score_records` table.
type ScoreRecord struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"userId"`
	SongID    uint64 `json:"songId"`
	EasyScore int64  `json:"easyScore"`
	EasyState string `json:"easyState"`
	HardScore int64  `json:"hardScore"`
	HardState string `json:"hardState"`

	// Song is populated only for admin views that expand song metadata.
	Song *Song `json:"song,omitempty"`
}
