package downloadplugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/plugin"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

type downloadPlugin struct {
	client *http.Client
}

// New creates the download plugin with a default HTTP client. Large dataset
// archives can take a long time, so no client-level timeout is imposed; the
// step context governs cancellation.
func New() plugin.Plugin {
	return &downloadPlugin{client: &http.Client{}}
}

var _ plugin.Plugin = (*downloadPlugin)(nil)

func (p *downloadPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "http-download",
		Type:        "download",
		Version:     "1.0.0",
		Description: "Downloads files over HTTP with optional SHA-256 verification.",
	}
}

func (p *downloadPlugin) Schema() any {
	return config.DownloadStep{}
}

// Evaluate inspects the destination file. With a declared checksum the file
// content decides; without one, mere existence satisfies the step.
func (p *downloadPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Download
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "download configuration missing", nil)
	}
	dest := config.ExpandPath(cfg.Destination)

	info, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.EvaluationResult{
				StepID:         step.ID,
				CurrentState:   model.StatusMissing,
				RequiresAction: true,
				Message:        fmt.Sprintf("%s not present", dest),
			}, nil
		}
		return nil, gwerrors.NewExecutionError(step.ID, fmt.Errorf("cannot access destination: %w", err))
	}
	if info.IsDir() {
		return nil, gwerrors.NewExecutionError(step.ID, fmt.Errorf("destination %s is a directory", dest))
	}

	if cfg.SHA256 == "" {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusSatisfied,
			RequiresAction: false,
			Message:        fmt.Sprintf("%s already present", dest),
		}, nil
	}

	sum, err := fileSHA256(dest)
	if err != nil {
		return nil, gwerrors.NewExecutionError(step.ID, err)
	}

	if strings.EqualFold(sum, cfg.SHA256) {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusSatisfied,
			RequiresAction: false,
			Message:        "checksum verified",
		}, nil
	}

	return &model.EvaluationResult{
		StepID:         step.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Message:        fmt.Sprintf("checksum mismatch: have %s, want %s", sum, cfg.SHA256),
	}, nil
}

// Apply fetches the URL into a temporary file next to the destination, checks
// the checksum there, then renames into place. A failed or corrupt download
// never replaces an existing file.
func (p *downloadPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Download
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "download configuration missing", nil)
	}
	dest := config.ExpandPath(cfg.Destination)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return failResult(step.ID, fmt.Errorf("create destination directory: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".partial-*")
	if err != nil {
		return failResult(step.ID, fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := p.fetch(ctx, cfg.URL, tmp); err != nil {
		tmp.Close()
		return failResult(step.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return failResult(step.ID, fmt.Errorf("flush download: %w", err))
	}

	if cfg.SHA256 != "" {
		sum, err := fileSHA256(tmpPath)
		if err != nil {
			return failResult(step.ID, err)
		}
		if !strings.EqualFold(sum, cfg.SHA256) {
			return failResult(step.ID, fmt.Errorf("downloaded file checksum %s does not match expected %s", sum, cfg.SHA256))
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return failResult(step.ID, fmt.Errorf("move download into place: %w", err))
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("downloaded %s", dest),
	}, nil
}

func (p *downloadPlugin) fetch(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("fetch %s after %s: %w", url, time.Since(start).Round(time.Second), err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func failResult(stepID string, err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  stepID,
		Status:  model.StatusFailed,
		Message: err.Error(),
		Error:   err,
	}, gwerrors.NewExecutionError(stepID, err)
}
