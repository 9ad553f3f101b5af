package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ModelDownloadTimeout bounds how long a model download may run.
const ModelDownloadTimeout = 30 * time.Minute

// ModelSpec identifies a downloadable model file. RepoID and SizeMB mirror
// the repo_id/size_mb keys of config.toml's model tables; FileName names the
// file inside the repository, and URL builds the HuggingFace resolve URL
// from RepoID and FileName.
type ModelSpec struct {
	RepoID   string
	FileName string
	SizeMB   int
}

// URL returns the HuggingFace resolve URL for the model's main branch file.
func (s ModelSpec) URL() string {
	return fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", s.RepoID, s.FileName)
}

// ModelManager downloads and caches model weight files under the content
// root's models/ directory (spec.md §6 on-disk layout). The Model Runtime
// itself talks to Ollama for inference; this cache exists for auxiliary
// model artifacts (e.g. the reranker's weights, or an embedding model
// pulled by repo rather than by Ollama's own model store) and for `eywa
// info` to report what's resident on disk without calling Ollama.
type ModelManager struct {
	modelsDir string
	mu        sync.Mutex
}

// NewModelManager creates a model manager rooted at modelsDir
// (config.ModelsDir()).
func NewModelManager(modelsDir string) *ModelManager {
	return &ModelManager{modelsDir: modelsDir}
}

// ModelPath returns the path a spec's file would be cached at.
func (m *ModelManager) ModelPath(spec ModelSpec) string {
	return filepath.Join(m.modelsDir, spec.FileName)
}

// EnsureModel ensures the model file named by spec is present, downloading
// it under a cross-process file lock if not. Returns the cached path.
func (m *ModelManager) EnsureModel(ctx context.Context, spec ModelSpec, progressFn func(downloaded, total int64)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	modelPath := m.ModelPath(spec)

	if info, err := os.Stat(modelPath); err == nil && info.Size() > 0 {
		return modelPath, nil
	}

	if err := os.MkdirAll(m.modelsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	lock := NewFileLock(m.modelsDir)
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("failed to acquire download lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have finished the download while we waited.
	if info, err := os.Stat(modelPath); err == nil && info.Size() > 0 {
		return modelPath, nil
	}

	if err := m.downloadModel(ctx, spec, modelPath, progressFn); err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}

	return modelPath, nil
}

func (m *ModelManager) downloadModel(ctx context.Context, spec ModelSpec, destPath string, progressFn func(downloaded, total int64)) error {
	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "eywa/1.0")

	client := &http.Client{Timeout: ModelDownloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer file.Close()

	totalSize := resp.ContentLength
	if totalSize <= 0 {
		totalSize = int64(spec.SizeMB) * 1024 * 1024
	}

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write: %w", writeErr)
			}
			downloaded += int64(n)
			if progressFn != nil {
				progressFn(downloaded, totalSize)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read: %w", err)
		}
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	return nil
}

// ModelExists reports whether spec's file is already cached.
func (m *ModelManager) ModelExists(spec ModelSpec) bool {
	info, err := os.Stat(m.ModelPath(spec))
	return err == nil && info.Size() > 0
}

// DeleteModel removes a cached model file.
func (m *ModelManager) DeleteModel(spec ModelSpec) error {
	return os.Remove(m.ModelPath(spec))
}
