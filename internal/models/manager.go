package models

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultDirName is the directory the model archives unzip into.
const DefaultDirName = "Speech"

// Progress reports download state for one model.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
}

// Manager downloads and inspects model archives under a single directory.
type Manager struct {
	dir string
	mu  sync.RWMutex
}

// NewManager creates a manager rooted at dir. An empty dir places the
// Speech directory next to the binary.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolving executable path: %w", err)
		}
		execPath, err = filepath.EvalSymlinks(execPath)
		if err != nil {
			return nil, fmt.Errorf("resolving symlinks: %w", err)
		}
		dir = filepath.Join(filepath.Dir(execPath), DefaultDirName)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating models directory: %w", err)
	}

	return &Manager{dir: dir}, nil
}

// Dir returns the models directory.
func (m *Manager) Dir() string {
	return m.dir
}

// ModelPath returns the full path of a model directory.
func (m *Manager) ModelPath(info ModelInfo) string {
	return filepath.Join(m.dir, info.Dirname)
}

// IsDownloaded reports whether the model is present on disk.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.ModelPath(info))
	if err != nil {
		return false
	}
	return stat.IsDir()
}

// ListDownloaded returns the registry models present on disk.
func (m *Manager) ListDownloaded() []ModelInfo {
	var downloaded []ModelInfo
	for _, model := range Registry {
		if m.IsDownloaded(model) {
			downloaded = append(downloaded, model)
		}
	}
	return downloaded
}

// Download fetches and unzips a model archive.
// progress receives updates and may be nil; sends never block.
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		report(progress, Progress{ModelID: info.ID, Downloaded: info.Size, Total: info.Size, Done: true})
		return nil
	}

	tmpZip, err := os.CreateTemp("", "model-*.zip")
	if err != nil {
		return err
	}
	tmpPath := tmpZip.Name()
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, "GET", info.URL, nil)
	if err != nil {
		tmpZip.Close()
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		tmpZip.Close()
		return fmt.Errorf("downloading %s: %w", info.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tmpZip.Close()
		return fmt.Errorf("downloading %s: HTTP %s", info.ID, resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	var downloaded int64
	buf := make([]byte, 32*1024)

	for {
		select {
		case <-ctx.Done():
			tmpZip.Close()
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := tmpZip.Write(buf[:n]); werr != nil {
				tmpZip.Close()
				return werr
			}
			downloaded += int64(n)
			report(progress, Progress{ModelID: info.ID, Downloaded: downloaded, Total: total})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			tmpZip.Close()
			return err
		}
	}

	tmpZip.Close()

	if err := unzip(tmpPath, m.dir); err != nil {
		return fmt.Errorf("unpacking %s: %w", info.ID, err)
	}

	// The archive is expected to contain the model directory itself.
	if !m.IsDownloaded(info) {
		return fmt.Errorf("archive for %s did not contain directory %s", info.ID, info.Dirname)
	}

	report(progress, Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true})
	return nil
}

// Verify checks that every given model is present with a non-empty
// directory, matching the documented Speech layout. It returns one error
// naming everything that is missing.
func (m *Manager) Verify(ids []string) error {
	var problems []string
	for _, id := range ids {
		info, ok := GetModel(id)
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown model %q", id))
			continue
		}
		if !m.IsDownloaded(info) {
			problems = append(problems, fmt.Sprintf("%s: directory %s missing", id, filepath.Join(m.dir, info.Dirname)))
			continue
		}
		entries, err := os.ReadDir(m.ModelPath(info))
		if err != nil || len(entries) == 0 {
			problems = append(problems, fmt.Sprintf("%s: directory %s is empty", id, filepath.Join(m.dir, info.Dirname)))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("model layout check failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// Delete removes a model from disk.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return os.RemoveAll(m.ModelPath(info))
}

func report(progress chan<- Progress, p Progress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	default:
	}
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)

		// Reject entries that escape the destination directory.
		if !strings.HasPrefix(fpath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, 0755)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}

		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	return nil
}
