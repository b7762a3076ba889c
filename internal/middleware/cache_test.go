package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func TestCachedResponseRoundtrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	body := []byte(`[{"id":1}]`)

	bs, err := encodeCached(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	status, gotHdr, gotBody, ok := decodeCached(bs)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Fatalf("header lost: %v", gotHdr)
	}
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body mismatch: %q", gotBody)
	}
}

func TestDecodeCachedRejectsCorruptInput(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}} {
		if _, _, _, ok := decodeCached(bs); ok {
			t.Fatalf("expected decode of %v to fail", bs)
		}
	}
	// A header length pointing past the end of the buffer must not panic.
	bs := make([]byte, 8)
	bs[7] = 0xff
	if _, _, _, ok := decodeCached(bs); ok {
		t.Fatal("expected oversized header length to fail")
	}
}

func newTestCache(t *testing.T) (*CatalogCache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCatalogCache(rdb), rdb
}

// serveCatalog pushes one GET through the cache middleware and returns the
// recorder. The handler body changes per call so a HIT is distinguishable
// from a re-executed handler.
func serveCatalog(t *testing.T, cc *CatalogCache, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := cc.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, body)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestCatalogCacheHitMissPurge(t *testing.T) {
	cc, _ := newTestCache(t)

	rec := serveCatalog(t, cc, "/api/songs", "v1")
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected first request to MISS, got %q", rec.Header().Get("X-Cache"))
	}

	rec = serveCatalog(t, cc, "/api/songs", "v2")
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected second request to HIT, got %q", rec.Header().Get("X-Cache"))
	}
	if rec.Body.String() != "v1" {
		t.Fatalf("expected cached body v1, got %q", rec.Body.String())
	}

	// After a purge the next request re-executes the handler.
	cc.Purge(context.Background())
	rec = serveCatalog(t, cc, "/api/songs", "v3")
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected post-purge request to MISS, got %q", rec.Header().Get("X-Cache"))
	}
	if rec.Body.String() != "v3" {
		t.Fatalf("expected fresh body v3, got %q", rec.Body.String())
	}
}

func TestCatalogCacheKeysPerPath(t *testing.T) {
	cc, _ := newTestCache(t)

	serveCatalog(t, cc, "/api/songs/1", "song-1")
	rec := serveCatalog(t, cc, "/api/songs/2", "song-2")
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatal("expected distinct paths to use distinct cache slots")
	}
	if rec.Body.String() != "song-2" {
		t.Fatalf("expected song-2 body, got %q", rec.Body.String())
	}
}

func TestCatalogCachePurgeScopesToPrefix(t *testing.T) {
	cc, rdb := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := rdb.Set(ctx, fmt.Sprintf("%sentry-%d", catalogKeyPrefix, i), "x", 0).Err(); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := rdb.Set(ctx, "deny:abcd", "1", 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cc.Purge(ctx)

	if n, _ := rdb.Exists(ctx, catalogKeyPrefix+"entry-0", catalogKeyPrefix+"entry-1", catalogKeyPrefix+"entry-2").Result(); n != 0 {
		t.Fatalf("expected catalog keys purged, %d remain", n)
	}
	if n, _ := rdb.Exists(ctx, "deny:abcd").Result(); n != 1 {
		t.Fatal("expected non-catalog keys untouched")
	}
}

func TestCatalogCacheNilClient(t *testing.T) {
	var cc *CatalogCache
	cc.Purge(context.Background())

	rec := serveCatalog(t, cc, "/api/songs", "direct")
	if rec.Body.String() != "direct" {
		t.Fatalf("expected pass-through body, got %q", rec.Body.String())
	}
}
