package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"smetka/internal/amqp"
	"smetka/internal/core"
	"smetka/internal/render"
	"smetka/internal/services"
	"smetka/internal/sheets"
)

var unsafeJobID = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// RenderWorker writes the printed form of each render job into an output directory.
type RenderWorker struct {
	renderer  *render.Renderer
	payers    sheets.PayerReader
	outputDir string
}

// NewRenderWorker creates the worker. payers may be nil, in which case print
// details are rendered exactly as received.
func NewRenderWorker(renderer *render.Renderer, payers sheets.PayerReader, outputDir string) (*RenderWorker, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &RenderWorker{renderer: renderer, payers: payers, outputDir: outputDir}, nil
}

// HandleRenderJob renders a single job. Errors are returned so the message is requeued.
func (w *RenderWorker) HandleRenderJob(ctx context.Context, msg *amqp.RenderJobMessage) error {
	slog.InfoContext(ctx, "Processing render job", "job_id", msg.JobID)

	details := w.completePayer(ctx, msg.Details)

	doc, name, err := w.renderer.Render(msg.Snapshot, details)
	if err != nil {
		return fmt.Errorf("render job %s: %w", msg.JobID, err)
	}

	path, err := w.write(msg.JobID, name, doc)
	if err != nil {
		return fmt.Errorf("write job %s: %w", msg.JobID, err)
	}

	slog.InfoContext(ctx, "Rendered form",
		"job_id", msg.JobID,
		"path", path,
		"size", len(doc),
		"net_amount", core.FormatAmount(msg.Snapshot.Result.NetAmount))
	return nil
}

func (w *RenderWorker) completePayer(ctx context.Context, p render.PrintDetails) render.PrintDetails {
	return services.CompletePayer(ctx, w.payers, p)
}

// write stores the document as <jobID>_<name> via a temporary file so readers
// never see a partial document.
func (w *RenderWorker) write(jobID, name string, doc []byte) (string, error) {
	final := filepath.Join(w.outputDir, OutputName(jobID, name))
	tmp, err := os.CreateTemp(w.outputDir, ".render-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", err
	}
	return final, nil
}

// OutputName is the file name a job's document is stored under.
func OutputName(jobID, name string) string {
	return unsafeJobID.ReplaceAllString(jobID, "_") + "_" + filepath.Base(name)
}
