package repository

import (
	"bytes"
	"context"
	"database/sql"
	"io"
)

// blobChunkSize is the payload size per chunk row. 255 KiB keeps each row
// comfortably under MySQL's default max_allowed_packet while streaming.
const blobChunkSize = 255 * 1024

// BlobRepo is a chunked blob store over the 'blob_files' and 'blob_chunks'
// tables: an uploaded file becomes one metadata row plus a sequence of
// fixed-size chunk rows, and downloads stream chunk by chunk without
// buffering the whole file. The client is constructed once at startup and
// shared by reference; nothing re-initializes it per request.
type BlobRepo struct{ DB *sql.DB }

func NewBlobRepo(db *sql.DB) *BlobRepo { return &BlobRepo{DB: db} }

// Upload stores the reader's content under the given filename. The
// metadata row and all chunk rows are written in one transaction so a
// failed upload leaves nothing behind. Filenames are unique; callers are
// expected to generate collision-resistant names.
func (r *BlobRepo) Upload(ctx context.Context, filename string, src io.Reader) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO blob_files (filename) VALUES (?)", filename)
	if err != nil {
		return 0, err
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	var total int64
	buf := make([]byte, blobChunkSize)
	for seq := 0; ; seq++ {
		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO blob_chunks (file_id, seq, data) VALUES (?,?,?)",
				fileID, seq, buf[:n]); err != nil {
				return 0, err
			}
			total += int64(n)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return 0, readErr
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE blob_files SET length=? WHERE id=?", total, fileID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// OpenByName returns a reader streaming the blob's content in chunk order.
// ErrNotFound is returned when no file with that name exists. The caller
// must close the reader.
func (r *BlobRepo) OpenByName(ctx context.Context, filename string) (io.ReadCloser, int64, error) {
	var (
		fileID uint64
		length int64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, length FROM blob_files WHERE filename=? LIMIT 1",
		filename).Scan(&fileID, &length)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT data FROM blob_chunks WHERE file_id=? ORDER BY seq", fileID)
	if err != nil {
		return nil, 0, err
	}
	return &chunkReader{rows: rows}, length, nil
}

// DeleteByFilename removes a blob and its chunks. ErrNotFound is returned
// when the name is unknown so callers can log best-effort cleanup misses.
func (r *BlobRepo) DeleteByFilename(ctx context.Context, filename string) error {
	var fileID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM blob_files WHERE filename=? LIMIT 1", filename).Scan(&fileID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM blob_chunks WHERE file_id=?", fileID); err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM blob_files WHERE id=?", fileID)
	return err
}

// chunkReader adapts the chunk result set to io.ReadCloser, pulling the
// next row only when the current chunk is drained.
type chunkReader struct {
	rows *sql.Rows
	cur  bytes.Reader
}

func (c *chunkReader) Read(p []byte) (int, error) {
	for c.cur.Len() == 0 {
		if !c.rows.Next() {
			if err := c.rows.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		var data []byte
		if err := c.rows.Scan(&data); err != nil {
			return 0, err
		}
		c.cur.Reset(data)
	}
	return c.cur.Read(p)
}

func (c *chunkReader) Close() error { return c.rows.Close() }
