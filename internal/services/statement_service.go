package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"smetka/internal/amqp"
	"smetka/internal/core"
	"smetka/internal/render"
	"smetka/internal/sheets"
)

// ErrQueueUnavailable is returned by Enqueue when no broker is configured.
var ErrQueueUnavailable = errors.New("render queue not available")

// RenderJobPublisher is the part of the AMQP client the service needs.
type RenderJobPublisher interface {
	PublishRenderJob(ctx context.Context, msg *amqp.RenderJobMessage) error
}

// StatementService orchestrates calculation, printing and asynchronous
// render jobs for payout statements.
type StatementService struct {
	renderer  *render.Renderer
	payers    sheets.PayerReader
	publisher RenderJobPublisher
}

// NewStatementService wires the service. payers and publisher may be nil.
func NewStatementService(renderer *render.Renderer, payers sheets.PayerReader, publisher RenderJobPublisher) *StatementService {
	return &StatementService{
		renderer:  renderer,
		payers:    payers,
		publisher: publisher,
	}
}

// Calculate validates the declaration and returns the statement snapshot.
func (s *StatementService) Calculate(ctx context.Context, d core.Declaration) (render.Snapshot, error) {
	snap, err := render.NewSnapshot(d)
	if err != nil {
		return render.Snapshot{}, err
	}
	slog.DebugContext(ctx, "Statement calculated",
		"contract_amount", core.FormatAmount(snap.Result.ContractAmount),
		"expense_ratio", int(d.ExpenseRatio),
		"insurance_rule", core.InsuranceRule(d, snap.Result.TaxableIncome),
		"net_amount", core.FormatAmount(snap.Result.NetAmount))
	return snap, nil
}

// Render fills the form for a snapshot and returns the document with its file name.
func (s *StatementService) Render(ctx context.Context, snap render.Snapshot, details render.PrintDetails) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", errors.New("renderer not configured")
	}
	details = CompletePayer(ctx, s.payers, details)
	doc, name, err := s.renderer.Render(snap, details)
	if err != nil {
		return nil, "", fmt.Errorf("render statement: %w", err)
	}
	return doc, name, nil
}

// Enqueue publishes a render job and returns its ID.
func (s *StatementService) Enqueue(ctx context.Context, snap render.Snapshot, details render.PrintDetails) (string, error) {
	if s.publisher == nil {
		return "", ErrQueueUnavailable
	}
	if err := details.Validate(); err != nil {
		return "", err
	}

	jobID := uuid.NewString()
	msg := amqp.NewRenderJobMessage(jobID, snap, details)
	if err := s.publisher.PublishRenderJob(ctx, msg); err != nil {
		return "", fmt.Errorf("publish render job: %w", err)
	}

	slog.InfoContext(ctx, "Render job queued", "job_id", jobID, "person", details.PersonName)
	return jobID, nil
}

// QueueAvailable reports whether Enqueue can succeed.
func (s *StatementService) QueueAvailable() bool {
	return s.publisher != nil
}

// CompletePayer fills the payer name and NAP office from the directory when
// only the EIK was supplied. Lookup failures leave the details untouched.
func CompletePayer(ctx context.Context, payers sheets.PayerReader, p render.PrintDetails) render.PrintDetails {
	if payers == nil || p.Payer.EIK == "" || p.Payer.Name != "" {
		return p
	}
	payer, err := payers.FindPayer(ctx, p.Payer.EIK)
	if errors.Is(err, core.ErrPayerNotFound) {
		slog.WarnContext(ctx, "Payer not in directory", "eik", p.Payer.EIK)
		return p
	}
	if err != nil {
		slog.WarnContext(ctx, "Payer lookup failed", "eik", p.Payer.EIK, "error", err)
		return p
	}
	p.Payer = payer
	return p
}
