package repository_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/quangph-dn/rhythm-companion/internal/database"
	"github.com/quangph-dn/rhythm-companion/internal/handler"
	"github.com/quangph-dn/rhythm-companion/internal/model"
	"github.com/quangph-dn/rhythm-companion/internal/repository"
)

// startTestDB brings up a throwaway MySQL container, opens a pool against
// it (which also bootstraps the schema) and tears both down with the test.
// Skipped in short mode and when no container runtime is available.
func startTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	image := os.Getenv("DB_IMAGE")
	if image == "" {
		image = "mysql:8.0"
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "rhythm_test",
			},
			// MySQL logs the line once for the init-only server and again
			// when it is actually accepting TCP connections.
			WaitingFor: wait.ForLog("ready for connections").WithOccurrence(2).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("container runtime unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	db, err := database.Open(ctx, "root", "rootpass", host, port.Port(), "rhythm_test")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBanCreateConflict(t *testing.T) {
	db := startTestDB(t)
	bans := repository.NewBanRepo(db)
	ctx := context.Background()

	if _, err := bans.Create(ctx, 10, "cheating", nil, 1); err != nil {
		t.Fatalf("first ban: %v", err)
	}
	if _, err := bans.Create(ctx, 10, "again", nil, 1); !errors.Is(err, repository.ErrAlreadyBanned) {
		t.Fatalf("expected ErrAlreadyBanned for second active ban, got %v", err)
	}

	// An expired ban does not block a new one.
	past := time.Now().UTC().Add(-time.Hour)
	if _, err := bans.Create(ctx, 11, "old offence", &past, 1); err != nil {
		t.Fatalf("expired ban: %v", err)
	}
	ban, err := bans.Create(ctx, 11, "new offence", nil, 1)
	if err != nil {
		t.Fatalf("expected ban after expired one to succeed, got %v", err)
	}
	active, err := bans.GetActiveByUser(ctx, 11)
	if err != nil {
		t.Fatalf("active lookup: %v", err)
	}
	if active.ID != ban.ID || active.Reason != "new offence" {
		t.Fatalf("expected the new ban to be the active one, got %+v", active)
	}
}

func TestBanCreateConcurrent(t *testing.T) {
	db := startTestDB(t)
	bans := repository.NewBanRepo(db)
	ctx := context.Background()

	errc := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func(reason string) {
			_, err := bans.Create(ctx, 20, reason, nil, 1)
			errc <- err
		}("race")
	}

	var ok, conflict int
	for i := 0; i < 2; i++ {
		switch err := <-errc; {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrAlreadyBanned):
			conflict++
		default:
			t.Fatalf("expected success or ErrAlreadyBanned, got %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("expected exactly one winner, got ok=%d conflict=%d", ok, conflict)
	}
}

func TestAccountDuplicateEmail(t *testing.T) {
	db := startTestDB(t)
	accounts := repository.NewAccountRepo(db)
	status := repository.NewGameStatusRepo(db)
	ctx := context.Background()

	uid, err := accounts.Create(ctx, "Alice", "alice@example.com", "Aa1!aaaa", false, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if err := status.Ensure(ctx, uid); err != nil {
		t.Fatalf("ensure status: %v", err)
	}

	if _, err := accounts.Create(ctx, "Mallory", "alice@example.com", "Bb2@bbbb", false, bcrypt.MinCost); !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE email=?", "alice@example.com").Scan(&n); err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one account row, got %d", n)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM game_status").Scan(&n); err != nil {
		t.Fatalf("count game_status: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one game_status row, got %d", n)
	}
}

func TestSongDeleteCascade(t *testing.T) {
	db := startTestDB(t)
	songs := repository.NewSongRepo(db)
	scores := repository.NewScoreRepo(db)
	blobs := repository.NewBlobRepo(db)
	ctx := context.Background()

	names := []string{"cascade-audio.mp3", "cascade-easy.mid", "cascade-hard.mid"}
	for _, name := range names {
		if _, err := blobs.Upload(ctx, name, bytes.NewReader([]byte("payload-"+name))); err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
	}
	song, err := songs.Create(ctx, model.Song{
		SongName: "Cascade", Composer: "Tester", Genre: "test", BPM: 120,
		AudioClip: "/uploads/" + names[0],
		EasyMidi:  "/uploads/" + names[1],
		HardMidi:  "/uploads/" + names[2],
	})
	if err != nil {
		t.Fatalf("create song: %v", err)
	}

	score := int64(100)
	state := model.StateCleared
	for _, userID := range []uint64{30, 31} {
		if _, err := scores.Upsert(ctx, userID, model.ScoreDelta{
			SongID: song.ID, EasyScore: &score, EasyState: &state,
		}); err != nil {
			t.Fatalf("upsert score for %d: %v", userID, err)
		}
	}

	h := handler.NewSongHandler(songs, scores, blobs, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/songs/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(song.ID, 10))
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := songs.GetByID(ctx, song.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected song row gone, got %v", err)
	}
	for _, name := range names {
		if _, _, err := blobs.OpenByName(ctx, name); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected blob %s gone, got %v", name, err)
		}
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM score_records WHERE song_id=?", song.ID).Scan(&n); err != nil {
		t.Fatalf("count scores: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected score rows gone, got %d", n)
	}
}
