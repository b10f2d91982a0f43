// Package archive stores raw fetched pages on the local filesystem so
// crawls can be replayed or debugged after the fact.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config captures the parameters for the page archive.
type Config struct {
	// Dir is the root directory where pages will be stored.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// Archive writes fetched page bodies under Dir, one file per URL per day.
type Archive struct {
	baseDir string
}

// New creates a filesystem-backed page archive rooted at cfg.Dir.
func New(cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("archive directory is required")
	}

	info, err := os.Stat(cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.Dir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("create archive directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("stat archive directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("archive path is not a directory")
	}

	// Check for write permissions.
	testFile := filepath.Join(cfg.Dir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("archive directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up test file: %w", err)
	}

	return &Archive{baseDir: cfg.Dir}, nil
}

// SavePage writes a page body and returns the path of the written file.
// The layout is pages/<yyyy-mm-dd>/<sha256(url)>.html.
func (a *Archive) SavePage(pageURL string, fetchedAt time.Time, body []byte) (string, error) {
	if strings.TrimSpace(pageURL) == "" {
		return "", fmt.Errorf("page url is required")
	}

	rel := objectName(pageURL, fetchedAt)
	fullPath := filepath.Join(a.baseDir, rel)

	cleanBase := filepath.Clean(a.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return "", fmt.Errorf("write page file: %w", err)
	}
	return fullPath, nil
}

func objectName(pageURL string, fetchedAt time.Time) string {
	sum := sha256.Sum256([]byte(pageURL))
	return filepath.Join(
		"pages",
		fetchedAt.UTC().Format("2006-01-02"),
		hex.EncodeToString(sum[:])+".html",
	)
}
