package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/middleware"
	"github.com/quangph-dn/rhythm-companion/internal/model"
	"github.com/quangph-dn/rhythm-companion/internal/queue"
	"github.com/quangph-dn/rhythm-companion/internal/repository"
	"github.com/quangph-dn/rhythm-companion/internal/service"
	"github.com/quangph-dn/rhythm-companion/internal/utils"
)

// SongHandler serves the catalog and its binary assets. Uploads arrive as
// multipart forms with up to three file parts (audio, easyMidi, hardMidi);
// each stored blob gets a generated unique name and the /uploads/<name>
// path is recorded on the song row.
type SongHandler struct {
	Songs  *repository.SongRepo
	Scores *repository.ScoreRepo
	Blobs  *repository.BlobRepo
	Cache  *middleware.CatalogCache
}

func NewSongHandler(songs *repository.SongRepo, scores *repository.ScoreRepo, blobs *repository.BlobRepo, cache *middleware.CatalogCache) *SongHandler {
	return &SongHandler{Songs: songs, Scores: scores, Blobs: blobs, Cache: cache}
}

// uploadPrefix is the public path prefix recorded on song rows; the
// streaming route resolves it back to a blob name.
const uploadPrefix = "/uploads/"

// fileFields are the multipart part names accepted by upload and update.
var fileFields = []string{"audio", "easyMidi", "hardMidi"}

// GetAll returns the whole catalog.
func (h *SongHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	songs, err := h.Songs.GetAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, songs)
}

// GetByID returns one catalog entry.
func (h *SongHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid song ID."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	song, err := h.Songs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Song not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, song)
}

// Download streams a stored asset. Any blob-store failure surfaces as 404
// because from the client's point of view the file simply is not there.
func (h *SongHandler) Download(c echo.Context) error {
	filename := c.Param("filename")

	src, length, err := h.Blobs.OpenByName(c.Request().Context(), filename)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "File not found."})
	}
	defer src.Close()

	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(length, 10))
	return c.Stream(http.StatusOK, "application/octet-stream", src)
}

// storeFile uploads one multipart file under a generated blob name and
// returns the public path to record on the song row.
func (h *SongHandler) storeFile(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	name, err := utils.NewBlobName(fh.Filename)
	if err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if _, err := h.Blobs.Upload(ctx, name, src); err != nil {
		return "", err
	}
	return uploadPrefix + name, nil
}

// deleteBlobByPath removes a previously stored blob given its recorded
// /uploads/<name> path. Best effort: a missing blob is logged, not fatal.
func (h *SongHandler) deleteBlobByPath(ctx context.Context, path string) {
	if !strings.HasPrefix(path, uploadPrefix) {
		return
	}
	name := strings.TrimPrefix(path, uploadPrefix)
	if name == "" {
		return
	}
	if err := h.Blobs.DeleteByFilename(ctx, name); err != nil {
		log.Printf("blob cleanup: delete %q failed: %v", name, err)
	}
}

// parseTimings decodes an optional JSON number array form value.
func parseTimings(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []float64
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload creates a song from a multipart form. At least one file part must
// be present.
func (h *SongHandler) Upload(c echo.Context) error {
	files := map[string]*multipart.FileHeader{}
	for _, field := range fileFields {
		if fh, err := c.FormFile(field); err == nil && fh != nil {
			files[field] = fh
		}
	}
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "No files uploaded."})
	}

	bpm, err := strconv.Atoi(strings.TrimSpace(c.FormValue("bpm")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid bpm value."})
	}
	easyTimings, err := parseTimings(c.FormValue("easyNoteTimings"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid easyNoteTimings value."})
	}
	hardTimings, err := parseTimings(c.FormValue("hardNoteTimings"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid hardNoteTimings value."})
	}

	song := model.Song{
		SongName:        c.FormValue("songName"),
		Composer:        c.FormValue("composer"),
		Genre:           c.FormValue("genre"),
		BPM:             bpm,
		Info:            c.FormValue("info"),
		IsDefault:       c.FormValue("isDefault") == "true",
		EasyNoteTimings: easyTimings,
		HardNoteTimings: hardTimings,
	}
	if song.SongName == "" || song.Composer == "" || song.Genre == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "songName, composer and genre are required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	paths := map[string]string{}
	for field, fh := range files {
		path, err := h.storeFile(ctx, fh)
		if err != nil {
			// Remove blobs stored before the failure so nothing orphans.
			for _, p := range paths {
				h.deleteBlobByPath(ctx, p)
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "File upload failed.", "error": err.Error()})
		}
		paths[field] = path
	}
	song.AudioClip = paths["audio"]
	song.EasyMidi = paths["easyMidi"]
	song.HardMidi = paths["hardMidi"]

	created, err := h.Songs.Create(ctx, song)
	if err != nil {
		for _, p := range paths {
			h.deleteBlobByPath(ctx, p)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"message": "Files uploaded & song saved successfully.", "song": created})
}

// Update edits catalog metadata and optionally replaces attachments. For
// each file part present the old blob is deleted best-effort before the
// new one is stored; metadata fields fall back to the stored values when
// absent from the form.
func (h *SongHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid song ID."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	song, err := h.Songs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Song not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	if v := c.FormValue("songName"); v != "" {
		song.SongName = v
	}
	if v := c.FormValue("composer"); v != "" {
		song.Composer = v
	}
	if v := c.FormValue("genre"); v != "" {
		song.Genre = v
	}
	if v := strings.TrimSpace(c.FormValue("bpm")); v != "" {
		bpm, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid bpm value."})
		}
		song.BPM = bpm
	}
	if v := c.FormValue("info"); v != "" {
		song.Info = v
	}
	if v := c.FormValue("isDefault"); v != "" {
		song.IsDefault = v == "true"
	}
	if v := c.FormValue("easyNoteTimings"); v != "" {
		t, err := parseTimings(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid easyNoteTimings value."})
		}
		song.EasyNoteTimings = t
	}
	if v := c.FormValue("hardNoteTimings"); v != "" {
		t, err := parseTimings(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid hardNoteTimings value."})
		}
		song.HardNoteTimings = t
	}

	replace := func(field string, current *string) error {
		fh, err := c.FormFile(field)
		if err != nil || fh == nil {
			return nil
		}
		if *current != "" {
			h.deleteBlobByPath(ctx, *current)
		}
		path, err := h.storeFile(ctx, fh)
		if err != nil {
			return err
		}
		*current = path
		return nil
	}
	for field, ref := range map[string]*string{
		"audio":    &song.AudioClip,
		"easyMidi": &song.EasyMidi,
		"hardMidi": &song.HardMidi,
	} {
		if err := replace(field, ref); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "File upload failed.", "error": err.Error()})
		}
	}

	updated, err := h.Songs.Update(ctx, song)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Song not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "Song updated successfully.", "song": updated})
}

// Delete removes a song, its three blobs (best effort, one failure never
// blocks the rest) and every score record referencing it.
func (h *SongHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid song ID."})
	}
	adminID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	song, err := h.Songs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Song not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	for _, path := range []string{song.AudioClip, song.EasyMidi, song.HardMidi} {
		if path != "" {
			h.deleteBlobByPath(ctx, path)
		}
	}

	if err := h.Songs.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Song not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	if err := h.Scores.DeleteBySong(ctx, id); err != nil {
		log.Printf("delete song %d: score cleanup failed: %v", id, err)
	}
	h.Cache.Purge(ctx)

	service.PublishModeration(ctx, queue.ModerationEvent{
		Action: "song.deleted", SongID: id, AdminID: adminID,
		At: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Song, assets and related scores deleted successfully."})
}
