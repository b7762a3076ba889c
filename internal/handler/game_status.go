package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/middleware"
	"github.com/quangph-dn/rhythm-companion/internal/model"
	"github.com/quangph-dn/rhythm-companion/internal/repository"
)

// GameStatusHandler serves the per-player progress endpoints.
type GameStatusHandler struct {
	Status *repository.GameStatusRepo
	Scores *repository.ScoreRepo
}

func NewGameStatusHandler(status *repository.GameStatusRepo, scores *repository.ScoreRepo) *GameStatusHandler {
	return &GameStatusHandler{Status: status, Scores: scores}
}

// Load returns the caller's progress with score records expanded.
func (h *GameStatusHandler) Load(c echo.Context) error {
	userID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	gs, err := h.Status.Load(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Game status not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, gs)
}

// Update applies a progress payload: score deltas are upserted and their
// ids unioned into the stored highscore set, the remaining fields replace
// the stored values wholesale. Re-sending the same payload is a no-op for
// the id set, which lets the game client retry updates safely.
func (h *GameStatusHandler) Update(c echo.Context) error {
	userID, _ := middleware.UserID(c)

	var req model.GameStatusUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	for _, d := range req.Highscore {
		if d.SongID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "song_id is required for highscore entries."})
		}
		if (d.EasyState != nil && !model.ValidState(*d.EasyState)) ||
			(d.HardState != nil && !model.ValidState(*d.HardState)) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid completion state."})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Missing progress rows are created on the fly so a player whose row
	// was lost (or created before this feature) heals on the next update.
	if err := h.Status.Ensure(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	upserted, err := h.upsertScores(ctx, userID, req.Highscore)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	var merged *[]uint64
	if len(upserted) > 0 {
		current, err := h.Status.Get(ctx, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
		}
		m := repository.MergeIDs(current.Highscore, upserted)
		merged = &m
	}

	gs, err := h.Status.SetFields(ctx, userID, merged,
		req.UnlockedSongs, req.UnlockedInstruments, req.SongToken, req.InstrumentToken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	gs.Scores, err = h.Scores.ListByIDs(ctx, gs.Highscore, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, gs)
}

// upsertScores applies the deltas concurrently; completion order does not
// matter because the resulting ids are merged as an unordered set.
func (h *GameStatusHandler) upsertScores(ctx context.Context, userID uint64, deltas []model.ScoreDelta) ([]uint64, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ids      []uint64
		firstErr error
	)
	for _, d := range deltas {
		wg.Add(1)
		go func(d model.ScoreDelta) {
			defer wg.Done()
			id, err := h.Scores.Upsert(ctx, userID, d)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			ids = append(ids, id)
		}(d)
	}
	wg.Wait()
	return ids, firstErr
}

// Delete removes the caller's progress: referenced score records first,
// then the progress row itself.
func (h *GameStatusHandler) Delete(c echo.Context) error {
	userID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	gs, err := h.Status.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Game status not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	if err := h.Scores.DeleteByIDs(ctx, gs.Highscore); err != nil {
		log.Printf("delete game status %d: score cleanup failed: %v", userID, err)
	}
	if err := h.Status.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Game status not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Game status and associated scores deleted successfully."})
}
