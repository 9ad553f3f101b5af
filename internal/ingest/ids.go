package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// computeDocID derives the deterministic document fingerprint (spec.md
// §3): hash(source_id, title, content), truncated to 128 bits and
// hex-encoded. Two ingests of identical (source_id, title, content)
// collapse to the same doc_id.
func computeDocID(sourceID, title, content string) string {
	h := sha256.New()
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(content))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]) // 128 bits
}

// chunkID derives a chunk's stable ID from its parent document and
// ordinal (spec.md §3: `doc_id || ":" || ordinal`).
func chunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", docID, ordinal)
}

// contentSHA256 hashes the document body for the content_sha256 metadata
// column (spec.md §3), independent of the doc_id fingerprint above.
func contentSHA256(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
