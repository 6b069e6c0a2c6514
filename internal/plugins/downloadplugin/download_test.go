package downloadplugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
)

func downloadStep(id string, cfg config.DownloadStep) *config.Step {
	return &config.Step{
		ID:       id,
		Type:     "download",
		Enabled:  true,
		Download: &cfg,
	}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestEvaluate_MissingFileRequiresAction(t *testing.T) {
	t.Parallel()

	p := New()
	step := downloadStep("data", config.DownloadStep{
		URL:         "https://example.com/data.tgz",
		Destination: filepath.Join(t.TempDir(), "data.tgz"),
	})

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	require.Equal(t, model.StatusMissing, eval.CurrentState)
}

func TestEvaluate_ChecksumMatchSatisfied(t *testing.T) {
	t.Parallel()

	payload := []byte("cross sections")
	dest := filepath.Join(t.TempDir(), "data.tgz")
	require.NoError(t, os.WriteFile(dest, payload, 0o644))

	p := New()
	step := downloadStep("data", config.DownloadStep{
		URL:         "https://example.com/data.tgz",
		Destination: dest,
		SHA256:      sha256Hex(payload),
	})

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.False(t, eval.RequiresAction)
}

func TestEvaluate_ChecksumMismatchDrifted(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "data.tgz")
	require.NoError(t, os.WriteFile(dest, []byte("truncated"), 0o644))

	p := New()
	step := downloadStep("data", config.DownloadStep{
		URL:         "https://example.com/data.tgz",
		Destination: dest,
		SHA256:      sha256Hex([]byte("full file")),
	})

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	require.Equal(t, model.StatusDrifted, eval.CurrentState)
}

func TestApply_DownloadsAndVerifies(t *testing.T) {
	t.Parallel()

	payload := []byte("nuclear data archive")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archive.tgz")
	p := New()
	step := downloadStep("data", config.DownloadStep{
		URL:         srv.URL,
		Destination: dest,
		SHA256:      sha256Hex(payload),
	})

	result, err := p.Apply(context.Background(), nil, step)
	require.NoError(t, err)
	require.Equal(t, model.StatusSuccess, result.Status)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestApply_ChecksumMismatchLeavesNoFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("corrupted payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "archive.tgz")
	p := New()
	step := downloadStep("data", config.DownloadStep{
		URL:         srv.URL,
		Destination: dest,
		SHA256:      sha256Hex([]byte("expected payload")),
	})

	result, err := p.Apply(context.Background(), nil, step)
	require.Error(t, err)
	require.Equal(t, model.StatusFailed, result.Status)

	_, err = os.Stat(dest)
	require.True(t, os.IsNotExist(err))

	// No partial files left behind either.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestApply_HTTPErrorStatusFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := New()
	step := downloadStep("data", config.DownloadStep{
		URL:         srv.URL,
		Destination: filepath.Join(t.TempDir(), "archive.tgz"),
	})

	result, err := p.Apply(context.Background(), nil, step)
	require.Error(t, err)
	require.Equal(t, model.StatusFailed, result.Status)
	require.Contains(t, result.Message, "404")
}
