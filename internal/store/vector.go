package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coder/hnsw"

	engineerrors "github.com/nans28/eywa/internal/errors"
)

// Write-batching thresholds (spec.md §4.3): flush at whichever comes
// first, a staged-chunk count or an idle duration.
const (
	DefaultFlushBatchSize = 256
	DefaultFlushIdle      = 5 * time.Second
)

// hnswGraphMetadata is persisted alongside the graph export so a reopen
// can rebuild the string<->key mapping and verify the model binding.
type hnswGraphMetadata struct {
	IDMap   map[string]uint64
	NextKey uint64
	Binding ModelBinding
	Rows    map[uint64]VectorRow // denormalized row data, keyed by internal key
}

// HNSWVectorStore implements VectorStore using coder/hnsw, a pure-Go HNSW
// implementation, with an in-memory write-behind batch and a
// (embedding_model_id, dimension) binding enforced on open.
type HNSWVectorStore struct {
	mu      sync.Mutex
	graph   *hnsw.Graph[uint64]
	path    string
	binding ModelBinding

	idMap   map[string]uint64
	keyMap  map[uint64]string
	rows    map[uint64]VectorRow
	nextKey uint64

	pending     []VectorRow // staged writes awaiting flush
	flushTimer  *time.Timer
	batchSize   int
	idleTimeout time.Duration

	closed bool
}

var _ VectorStore = (*HNSWVectorStore)(nil)

// NewHNSWVectorStore opens the vector store at path (empty for an
// in-memory store, used by tests), verifying the model binding against
// the persisted metadata if present.
func NewHNSWVectorStore(path string, binding ModelBinding) (*HNSWVectorStore, error) {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 32
	graph.EfSearch = 64
	graph.Ml = 0.25

	s := &HNSWVectorStore{
		graph:       graph,
		path:        path,
		binding:     binding,
		idMap:       make(map[string]uint64),
		keyMap:      make(map[uint64]string),
		rows:        make(map[uint64]VectorRow),
		batchSize:   DefaultFlushBatchSize,
		idleTimeout: DefaultFlushIdle,
	}

	if path == "" {
		return s, nil
	}

	metaPath := path + ".meta"
	if _, err := os.Stat(metaPath); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
		if s.binding.ModelID != "" && binding.ModelID != "" &&
			(s.binding.ModelID != binding.ModelID || s.binding.Dimension != binding.Dimension) {
			return nil, engineerrors.ModelMismatch(
				fmt.Sprintf("vector store was built with model %q (dim %d), current model is %q (dim %d)",
					s.binding.ModelID, s.binding.Dimension, binding.ModelID, binding.Dimension), nil,
			).WithSuggestion("run 'eywa reset' or re-ingest to rebuild the index")
		}
	}

	return s, nil
}

// Upsert stages rows for write-behind batching; a flush happens
// automatically at DefaultFlushBatchSize staged chunks or after
// DefaultFlushIdle of inactivity, whichever comes first.
func (s *HNSWVectorStore) Upsert(ctx context.Context, rows []VectorRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return engineerrors.Storage("vector store is closed", nil)
	}

	for _, r := range rows {
		if s.binding.Dimension != 0 && len(r.Vector) != s.binding.Dimension {
			return engineerrors.ModelMismatch(
				fmt.Sprintf("vector has dimension %d, store is bound to %d", len(r.Vector), s.binding.Dimension), nil)
		}
	}

	s.pending = append(s.pending, rows...)

	if len(s.pending) >= s.batchSize {
		return s.flushLocked()
	}

	s.resetFlushTimerLocked()
	return nil
}

func (s *HNSWVectorStore) resetFlushTimerLocked() {
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
	s.flushTimer = time.AfterFunc(s.idleTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		_ = s.flushLocked()
	})
}

// flushLocked commits staged rows into the HNSW graph. Caller holds s.mu.
func (s *HNSWVectorStore) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}

	for _, r := range s.pending {
		if existingKey, exists := s.idMap[r.ChunkID]; exists {
			// Lazy deletion: orphan the old key rather than delete from the
			// graph, mirroring the teacher's coder/hnsw workaround.
			delete(s.keyMap, existingKey)
			delete(s.rows, existingKey)
			delete(s.idMap, r.ChunkID)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		normalizeVectorInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[r.ChunkID] = key
		s.keyMap[key] = r.ChunkID
		s.rows[key] = r
	}

	s.pending = nil
	return nil
}

// Flush forces any batched writes out, establishing read-your-writes for
// the calling process (spec.md §4.3).
func (s *HNSWVectorStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return engineerrors.Storage("vector store is closed", nil)
	}
	return s.flushLocked()
}

// Query flushes pending writes then finds the k nearest neighbors by
// cosine similarity. Ties are broken by ChunkID ascending.
func (s *HNSWVectorStore) Query(ctx context.Context, vector []float32, k int, sourceFilter string) ([]VectorResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, engineerrors.Storage("vector store is closed", nil)
	}
	if err := s.flushLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if s.binding.Dimension != 0 && len(vector) != s.binding.Dimension {
		s.mu.Unlock()
		return nil, engineerrors.ModelMismatch(
			fmt.Sprintf("query vector has dimension %d, store is bound to %d", len(vector), s.binding.Dimension), nil)
	}

	if s.graph.Len() == 0 {
		s.mu.Unlock()
		return nil, nil
	}

	query := make([]float32, len(vector))
	copy(query, vector)
	normalizeVectorInPlace(query)

	// With a source filter, over-fetch 4x because the filter can only be
	// applied after the graph search. Lazily-deleted orphans are also
	// skipped after the search and are not compensated for.
	searchK := k
	if sourceFilter != "" {
		searchK = k * 4
		if searchK < k {
			searchK = k
		}
	}

	nodes := s.graph.Search(query, searchK)
	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		chunkID, exists := s.keyMap[node.Key]
		if !exists {
			continue
		}
		row := s.rows[node.Key]
		if sourceFilter != "" && row.SourceID != sourceFilter {
			continue
		}
		distance := s.graph.Distance(query, node.Value)
		results = append(results, VectorResult{
			ChunkID: chunkID,
			Score:   1.0 - distance,
			Row:     row,
		})
	}
	s.mu.Unlock()

	sortVectorResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func sortVectorResults(results []VectorResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0; j-- {
			a, b := results[j-1], results[j]
			if a.Score > b.Score || (a.Score == b.Score && a.ChunkID <= b.ChunkID) {
				break
			}
			results[j-1], results[j] = results[j], results[j-1]
		}
	}
}

// DeleteByDoc removes all chunks belonging to a document.
func (s *HNSWVectorStore) DeleteByDoc(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return engineerrors.Storage("vector store is closed", nil)
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	for key, row := range s.rows {
		if row.DocID == docID {
			delete(s.keyMap, key)
			delete(s.idMap, row.ChunkID)
			delete(s.rows, key)
		}
	}
	return nil
}

// DeleteBySource removes all chunks belonging to a source.
func (s *HNSWVectorStore) DeleteBySource(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return engineerrors.Storage("vector store is closed", nil)
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	for key, row := range s.rows {
		if row.SourceID == sourceID {
			delete(s.keyMap, key)
			delete(s.idMap, row.ChunkID)
			delete(s.rows, key)
		}
	}
	return nil
}

// Close flushes pending writes, persists the graph if backed by a path,
// and releases resources.
func (s *HNSWVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
	if err := s.flushLocked(); err != nil {
		return err
	}

	var saveErr error
	if s.path != "" {
		saveErr = s.saveLocked()
	}

	s.closed = true
	s.graph = nil
	return saveErr
}

func (s *HNSWVectorStore) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return engineerrors.Storage("create vector store directory", err)
	}

	tmpPath := s.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return engineerrors.Storage("create vector index file", err)
	}
	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return engineerrors.Storage("export vector graph", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return engineerrors.Storage("close vector index file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return engineerrors.Storage("rename vector index file", err)
	}

	return s.saveMetadata()
}

func (s *HNSWVectorStore) saveMetadata() error {
	metaPath := s.path + ".meta"
	tmpPath := metaPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return engineerrors.Storage("create vector metadata file", err)
	}

	meta := hnswGraphMetadata{IDMap: s.idMap, NextKey: s.nextKey, Binding: s.binding, Rows: s.rows}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return engineerrors.Storage("encode vector metadata", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return engineerrors.Storage("close vector metadata file", err)
	}
	return os.Rename(tmpPath, metaPath)
}

func (s *HNSWVectorStore) load() error {
	if err := s.loadMetadata(); err != nil {
		return err
	}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // metadata exists but graph file doesn't yet (fresh store)
		}
		return engineerrors.Storage("open vector index file", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if err := s.graph.Import(reader); err != nil {
		return engineerrors.Storage("import vector graph", err)
	}
	return nil
}

func (s *HNSWVectorStore) loadMetadata() error {
	metaPath := s.path + ".meta"
	file, err := os.Open(metaPath)
	if err != nil {
		return engineerrors.Storage("open vector metadata file", err)
	}
	defer file.Close()

	var meta hnswGraphMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return engineerrors.Storage("decode vector metadata", err)
	}

	s.idMap = meta.IDMap
	s.rows = meta.Rows
	s.nextKey = meta.NextKey
	s.binding = meta.Binding
	s.keyMap = make(map[uint64]string, len(s.idMap))
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}
	return nil
}

// normalizeVectorInPlace normalizes a vector to unit length, required
// before storing or querying under cosine similarity.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}
