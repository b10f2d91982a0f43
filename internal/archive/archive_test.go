package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewCreatesMissingDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "archive")
	_, err := New(Config{Dir: dir})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestSavePageLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, err := New(Config{Dir: dir})
	require.NoError(t, err)

	fetchedAt := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	pageURL := "https://www.adafruit.com/category/leds"
	body := []byte("<html><body>leds</body></html>")

	path, err := a.SavePage(pageURL, fetchedAt, body)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(pageURL))
	want := filepath.Join(dir, "pages", "2024-05-17", hex.EncodeToString(sum[:])+".html")
	require.Equal(t, want, path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestSavePageSameURLSameDayOverwrites(t *testing.T) {
	t.Parallel()

	a, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	fetchedAt := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	first, err := a.SavePage("https://www.adafruit.com/categories", fetchedAt, []byte("v1"))
	require.NoError(t, err)
	second, err := a.SavePage("https://www.adafruit.com/categories", fetchedAt.Add(time.Hour), []byte("v2"))
	require.NoError(t, err)
	require.Equal(t, first, second)

	got, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}

func TestSavePageRequiresURL(t *testing.T) {
	t.Parallel()

	a, err := New(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = a.SavePage("  ", time.Now(), []byte("x"))
	require.Error(t, err)
}
