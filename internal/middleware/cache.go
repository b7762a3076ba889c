package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// The song catalog is read far more often than it changes (the game client
// refreshes it on every boot), so public catalog GETs are cached in Redis
// for a short TTL. Admin writes purge the cache so a deleted or edited song
// never outlives its row; the TTL only bounds staleness when a purge is
// missed. Binary asset downloads are never cached here; they stream
// straight from the blob store.

// catalogCacheTTL bounds staleness should a purge fail.
const catalogCacheTTL = 30 * time.Second

// catalogCacheMaxBody skips caching for oversized responses.
const catalogCacheMaxBody = 1 << 20

// catalogKeyPrefix namespaces cache entries so Purge can scan exactly them.
const catalogKeyPrefix = "catalog:"

// CatalogCache is the Redis-backed response cache for public catalog GETs.
// A nil Redis client turns both the middleware and Purge into no-ops.
type CatalogCache struct{ RDB *redis.Client }

func NewCatalogCache(rdb *redis.Client) *CatalogCache { return &CatalogCache{RDB: rdb} }

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.size < catalogCacheMaxBody {
		remain := int64(catalogCacheMaxBody) - cw.size
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// catalogCacheKey hashes path+query so every catalog URL gets its own slot.
func catalogCacheKey(c echo.Context) string {
	sum := sha1.Sum([]byte(c.Request().URL.Path + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s%x", catalogKeyPrefix, sum[:])
}

// encodeCached packs [4 bytes status][4 bytes headerLen][headerJSON][body]
// so a hit replays status, headers and body exactly as first produced.
func encodeCached(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodeCached(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// Middleware serves cached GET responses for the public song catalog.
func (cc *CatalogCache) Middleware() echo.MiddlewareFunc {
	if cc == nil || cc.RDB == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			key := catalogCacheKey(c)
			if bs, err := cc.RDB.Get(c.Request().Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := decodeCached(bs); ok {
					for k, vals := range hdr {
						if k == "Content-Length" {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && cw.size <= catalogCacheMaxBody {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					vv := make([]string, len(vals))
					copy(vv, vals)
					hdr[k] = vv
				}
				if payload, err := encodeCached(cw.status, hdr, cw.buf.Bytes()); err == nil {
					_ = cc.RDB.SetEx(context.Background(), key, payload, catalogCacheTTL).Err()
				}
			}
			return nil
		}
	}
}

// Purge drops every cached catalog response. Called by the admin write
// handlers after a successful catalog change; failures are logged since the
// TTL still bounds how long a stale entry can live.
func (cc *CatalogCache) Purge(ctx context.Context) {
	if cc == nil || cc.RDB == nil {
		return
	}
	iter := cc.RDB.Scan(ctx, 0, catalogKeyPrefix+"*", 64).Iterator()
	for iter.Next(ctx) {
		if err := cc.RDB.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("catalog cache: purge %q failed: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("catalog cache: purge scan failed: %v", err)
	}
}
