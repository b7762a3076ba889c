package model

// Song is a catalog entry in the `songs` table.  The three asset fields are
// paths of the form /uploads/<blob name> pointing into the chunked blob
// store; they are empty until the corresponding file has been uploaded.
// Note timing arrays are produced by the chart pipeline and handed to the
// game client verbatim.
type Song struct {
	ID              uint64    `json:"id"`
	SongName        string    `json:"songName"`
	Composer        string    `json:"composer"`
	Genre           string    `json:"genre"`
	BPM             int       `json:"bpm"`
	Info            string    `json:"info"`
	IsDefault       bool      `json:"isDefault"`
	AudioClip       string    `json:"audioClip"`
	EasyMidi        string    `json:"easyMidi"`
	HardMidi        string    `json:"hardMidi"`
	EasyNoteTimings []float64 `json:"easyNoteTimings"`
	HardNoteTimings []float64 `json:"hardNoteTimings"`
}
