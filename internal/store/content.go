package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	engineerrors "github.com/nans28/eywa/internal/errors"
)

// zstdCompressionLevel is the default level for compressing stored content
// bodies (spec.md §4.2: "Zstandard, level 3 default").
const zstdCompressionLevel = zstd.SpeedDefault

// SQLiteContentStore is the Content Store: a SQLite database holding
// zstd-compressed document bodies plus plaintext metadata columns indexed
// by doc_id and source_id.
type SQLiteContentStore struct {
	mu      sync.RWMutex
	db      *sql.DB
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	closed  bool
}

var _ ContentStore = (*SQLiteContentStore)(nil)

// NewSQLiteContentStore opens (or creates) the content database at path.
// If path is empty, an in-memory database is used, matching the teacher's
// test convention in sqlite_bm25.go.
func NewSQLiteContentStore(path string) (*SQLiteContentStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, engineerrors.Storage(fmt.Sprintf("create content store directory %s", dir), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, engineerrors.Storage("open content database", err)
	}

	// Single writer to prevent SQLite lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, engineerrors.Storage("set content database pragma", err)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdCompressionLevel))
	if err != nil {
		_ = db.Close()
		return nil, engineerrors.Internal("create zstd encoder", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, engineerrors.Internal("create zstd decoder", err)
	}

	s := &SQLiteContentStore{db: db, enc: enc, dec: dec}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, engineerrors.Storage("initialize content store schema", err)
	}
	return s, nil
}

func (s *SQLiteContentStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_id         TEXT PRIMARY KEY,
		source_id      TEXT NOT NULL,
		title          TEXT NOT NULL,
		content_blob   BLOB NOT NULL,
		content_sha256 TEXT NOT NULL,
		mime_hint      TEXT NOT NULL,
		content_type   TEXT NOT NULL,
		language       TEXT NOT NULL DEFAULT '',
		created_at     INTEGER NOT NULL,
		byte_len       INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_source_id ON documents(source_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put inserts or replaces a document. Idempotent on DocID.
func (s *SQLiteContentStore) Put(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return engineerrors.Storage("content store is closed", nil)
	}

	compressed := s.enc.EncodeAll([]byte(doc.Content), nil)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents
			(doc_id, source_id, title, content_blob, content_sha256, mime_hint, content_type, language, created_at, byte_len)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			source_id = excluded.source_id,
			title = excluded.title,
			content_blob = excluded.content_blob,
			content_sha256 = excluded.content_sha256,
			mime_hint = excluded.mime_hint,
			content_type = excluded.content_type,
			language = excluded.language,
			byte_len = excluded.byte_len
	`,
		doc.DocID, doc.SourceID, doc.Title, compressed, doc.ContentSHA256,
		doc.MimeHint, string(doc.ContentType), doc.Language, doc.CreatedAt.Unix(), doc.ByteLen,
	)
	if err != nil {
		return engineerrors.Storage(fmt.Sprintf("put document %s", doc.DocID), err)
	}
	return nil
}

// Get returns the uncompressed document or fails with NotFound.
func (s *SQLiteContentStore) Get(ctx context.Context, docID string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, engineerrors.Storage("content store is closed", nil)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT doc_id, source_id, title, content_blob, content_sha256, mime_hint, content_type, language, created_at, byte_len
		FROM documents WHERE doc_id = ?
	`, docID)

	var (
		doc        Document
		compressed []byte
		createdAt  int64
	)
	if err := row.Scan(&doc.DocID, &doc.SourceID, &doc.Title, &compressed, &doc.ContentSHA256,
		&doc.MimeHint, &doc.ContentType, &doc.Language, &createdAt, &doc.ByteLen); err != nil {
		if err == sql.ErrNoRows {
			return nil, engineerrors.NotFound(fmt.Sprintf("document %s not found", docID), err).WithDetail("doc_id", docID)
		}
		return nil, engineerrors.Storage(fmt.Sprintf("get document %s", docID), err)
	}

	content, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, engineerrors.Storage(fmt.Sprintf("decompress document %s", docID), err)
	}
	doc.Content = string(content)
	doc.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &doc, nil
}

// Delete removes a document. Idempotent.
func (s *SQLiteContentStore) Delete(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return engineerrors.Storage("content store is closed", nil)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID); err != nil {
		return engineerrors.Storage(fmt.Sprintf("delete document %s", docID), err)
	}
	return nil
}

// List returns metadata for every document in a source, newest first.
func (s *SQLiteContentStore) List(ctx context.Context, sourceID string) ([]*DocMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, engineerrors.Storage("content store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, source_id, title, content_sha256, mime_hint, content_type, created_at, byte_len
		FROM documents WHERE source_id = ? ORDER BY created_at DESC
	`, sourceID)
	if err != nil {
		return nil, engineerrors.Storage(fmt.Sprintf("list documents for source %s", sourceID), err)
	}
	defer rows.Close()

	var metas []*DocMeta
	for rows.Next() {
		var m DocMeta
		var createdAt int64
		if err := rows.Scan(&m.DocID, &m.SourceID, &m.Title, &m.ContentSHA256, &m.MimeHint, &m.ContentType, &createdAt, &m.ByteLen); err != nil {
			return nil, engineerrors.Storage("scan document metadata", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		metas = append(metas, &m)
	}
	return metas, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteContentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}
