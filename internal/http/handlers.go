package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smetka/internal/core"
	applog "smetka/internal/log"
	"smetka/internal/render"
	"smetka/internal/services"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// formView echoes the calculator form back into the page.
type formView struct {
	ContractAmount      string
	ExpenseRatio        int
	MonthlyOtherIncome  string
	ManualIncomeAmount  string
	ManualTaxableAmount string
	DocumentDate        string

	HasDisability         bool
	MaxInsured            bool
	Retired               bool
	RetiredWantsInsurance bool
	InsuredElsewhere      bool
	BornAfter1959         bool
	NoTaxFourthQuarter    bool
	ManualIncome          bool
	ManualTaxable         bool
}

func newFormView(req declarationRequest) formView {
	return formView{
		ContractAmount:        string(req.ContractAmount),
		ExpenseRatio:          req.ExpenseRatio,
		MonthlyOtherIncome:    string(req.MonthlyOtherIncome),
		ManualIncomeAmount:    string(req.ManualIncomeAmount),
		ManualTaxableAmount:   string(req.ManualTaxableAmount),
		DocumentDate:          req.DocumentDate,
		HasDisability:         req.HasDisability,
		MaxInsured:            req.MaxInsured,
		Retired:               req.Retired,
		RetiredWantsInsurance: req.RetiredWantsInsurance,
		InsuredElsewhere:      req.InsuredElsewhere,
		BornAfter1959:         req.BornAfter1959,
		NoTaxFourthQuarter:    req.NoTaxFourthQuarter,
		ManualIncome:          req.ManualIncome,
		ManualTaxable:         req.ManualTaxable,
	}
}

// resultView is the summary partial plus what the print step needs.
type resultView struct {
	Lines          []core.SummaryLine
	Contributions  string
	NetWords       string
	QuarterLabel   string
	InsuranceRule  string
	Snapshot       string
	QuarterNames   []string
	DefaultQuarter string
	ContractDate   string
	Payers         []core.Payer
	QueueAvailable bool
}

type pageView struct {
	Form   formView
	Ratios []core.ExpenseRatio
	Result *resultView
	Error  string
}

func (s *Server) renderTemplate(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, page pageView) {
	page.Ratios = core.ExpenseRatios()
	body, err := s.renderTemplate("index.html", page)
	if err != nil {
		s.events.LogError(r.Context(), "Index template execution failed", err, applog.ComponentHTTP, applog.OpRender)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(string(body)).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	today := s.now()
	s.writePage(w, r, http.StatusOK, pageView{Form: formView{
		ExpenseRatio: int(core.Ratio25),
		DocumentDate: today.Format("2006-01-02"),
	}})
}

// handleCalculate serves the HTML form: a partial for htmx, the whole page otherwise.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := parseForm(r); err != nil {
		s.writeCalculateError(w, r, declarationRequest{}, err)
		return
	}
	req, err := declarationFromForm(r.Form)
	if err != nil {
		s.writeCalculateError(w, r, req, err)
		return
	}
	snap, err := s.calculate(ctx, req)
	if err != nil {
		s.writeCalculateError(w, r, req, err)
		return
	}

	view, err := s.newResultView(ctx, snap)
	if err != nil {
		s.events.LogError(ctx, "Snapshot encoding failed", err, applog.ComponentHTTP, applog.OpCalculate)
		InternalServerError("Грешка при изчислението").Write(w)
		return
	}

	if !isHTMX(r) {
		s.writePage(w, r, http.StatusOK, pageView{Form: newFormView(req), Result: view})
		return
	}
	body, err := s.renderTemplate("result.html", view)
	if err != nil {
		s.events.LogError(ctx, "Result template execution failed", err, applog.ComponentHTTP, applog.OpRender)
		InternalServerError("Грешка при показването на резултата").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerStatementCalculated(core.FormatAmount(snap.Result.NetAmount), snap.Declaration.DocumentDate.Month()).
		BodyHTML(string(body)).
		Write(w)
}

func (s *Server) writeCalculateError(w http.ResponseWriter, r *http.Request, req declarationRequest, err error) {
	status, msg := errorStatus(err)
	s.logger.WarnContext(r.Context(), "Calculation rejected", applog.FieldError, err, applog.FieldStatusCode, status)
	if isHTMX(r) {
		ErrorResponse(status, msg).Write(w)
		return
	}
	s.writePage(w, r, status, pageView{Form: newFormView(req), Error: msg})
}

// calculate converts and calculates a request, counting and logging successes.
func (s *Server) calculate(ctx context.Context, req declarationRequest) (render.Snapshot, error) {
	d, err := req.toDeclaration(s.now())
	if err != nil {
		return render.Snapshot{}, err
	}
	snap, err := s.service.Calculate(ctx, d)
	if err != nil {
		return render.Snapshot{}, err
	}
	s.calculations.Add(1)
	s.events.LogStatement(ctx, snap.Declaration, snap.Result)
	return snap, nil
}

func (s *Server) newResultView(ctx context.Context, snap render.Snapshot) (*resultView, error) {
	token, err := snap.Encode()
	if err != nil {
		return nil, err
	}
	month := snap.Declaration.DocumentDate.Month()
	view := &resultView{
		Lines:          snap.Result.Summary(),
		Contributions:  core.FormatAmount(snap.Result.Contributions()),
		NetWords:       core.AmountToWords(snap.Result.NetAmount),
		QuarterLabel:   core.QuarterLabel(month),
		InsuranceRule:  core.InsuranceRule(snap.Declaration, snap.Result.TaxableIncome),
		Snapshot:       token,
		QuarterNames:   core.QuarterNames[:],
		DefaultQuarter: core.QuarterNames[core.Quarter(month)-1],
		ContractDate:   s.now().Format("2006-01-02"),
		QueueAvailable: s.service.QueueAvailable(),
	}
	if s.payers != nil {
		payers, err := s.payers.ListPayers(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "Payer list unavailable", applog.FieldError, err)
		}
		view.Payers = payers
	}
	return view, nil
}

// snapshotFromForm prefers the hidden snapshot token and falls back to the
// declaration fields of the same form.
func (s *Server) snapshotFromForm(ctx context.Context, r *http.Request) (render.Snapshot, error) {
	if token := strings.TrimSpace(r.Form.Get("snapshot")); token != "" {
		return decodeSnapshot(token)
	}
	req, err := declarationFromForm(r.Form)
	if err != nil {
		return render.Snapshot{}, err
	}
	return s.calculate(ctx, req)
}

// decodeSnapshot reports undecodable tokens as malformed requests.
func decodeSnapshot(token string) (render.Snapshot, error) {
	snap, err := render.DecodeSnapshot(token)
	if err == nil {
		return snap, nil
	}
	if status, _ := errorStatus(err); status == http.StatusInternalServerError {
		return snap, badRequest("Невалидно изчисление", err)
	}
	return snap, err
}

// handleForm fills the print form and returns it as a .docx attachment.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fail := func(err error) {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.events.LogError(ctx, "Form rendering failed", err, applog.ComponentRender, applog.OpRender)
		}
		ErrorResponse(status, msg).Write(w)
	}

	if err := parseForm(r); err != nil {
		fail(err)
		return
	}
	snap, err := s.snapshotFromForm(ctx, r)
	if err != nil {
		fail(err)
		return
	}
	details, err := printDetailsFromForm(r.Form).toPrintDetails()
	if err != nil {
		fail(err)
		return
	}
	doc, name, err := s.service.Render(ctx, snap, details)
	if err != nil {
		fail(err)
		return
	}
	s.documents.Add(1)

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

type summaryLineResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type calculateResponse struct {
	Declaration    core.Declaration      `json:"declaration"`
	Result         core.Result           `json:"result"`
	Summary        []summaryLineResponse `json:"summary"`
	NetAmountWords string                `json:"net_amount_words"`
	QuarterLabel   string                `json:"quarter_label"`
	InsuranceRule  string                `json:"insurance_rule"`
	Snapshot       string                `json:"snapshot"`
}

func (s *Server) handleAPICalculate(w http.ResponseWriter, r *http.Request) {
	var req declarationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, err)
		return
	}
	snap, err := s.calculate(r.Context(), req)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	token, err := snap.Encode()
	if err != nil {
		writeJSONError(w, err)
		return
	}

	resp := calculateResponse{
		Declaration:    snap.Declaration,
		Result:         snap.Result,
		NetAmountWords: core.AmountToWords(snap.Result.NetAmount),
		QuarterLabel:   core.QuarterLabel(snap.Declaration.DocumentDate.Month()),
		InsuranceRule:  core.InsuranceRule(snap.Declaration, snap.Result.TaxableIncome),
		Snapshot:       token,
	}
	for _, l := range snap.Result.Summary() {
		resp.Summary = append(resp.Summary, summaryLineResponse{Key: l.Key, Label: l.Label, Value: l.Formatted()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleWords spells ?amount=; a leading minus is allowed.
func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("amount"))
	if raw == "" {
		writeJSONError(w, badRequest("Липсва параметър amount", nil))
		return
	}
	amount, err := core.ParseSignedAmount(raw)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount": core.FormatAmount(amount),
		"words":  core.AmountToWords(amount),
	})
}

func (s *Server) handleQuarter(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		writeJSONError(w, badRequest("Липсва параметър month", nil))
		return
	}
	month, err := strconv.Atoi(raw)
	if err != nil || month < 1 {
		writeJSONError(w, unprocessable("Невалиден месец", core.ErrInvalidMonth))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":   month,
		"quarter": core.Quarter(month),
		"label":   core.QuarterLabel(month),
	})
}

type renderJobRequest struct {
	Snapshot    string              `json:"snapshot"`
	Declaration *declarationRequest `json:"declaration"`
	Details     printDetailsRequest `json:"details"`
}

// handleRenderJob queues an asynchronous render. It accepts JSON or the print form.
func (s *Server) handleRenderJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, details, err := s.parseRenderJob(r)
	if err == nil {
		var jobID string
		jobID, err = s.service.Enqueue(ctx, snap, details)
		if err == nil {
			s.jobs.Add(1)
			if isHTMX(r) {
				NewHTMXResponse().
					Status(http.StatusAccepted).
					TriggerRenderQueued(jobID).
					TriggerSuccessNotification("Бланката е поставена в опашката").
					Write(w)
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "queued"})
			return
		}
	}

	if errors.Is(err, services.ErrQueueUnavailable) {
		s.logger.WarnContext(ctx, "Render job refused, no queue configured")
		if isHTMX(r) {
			ErrorResponse(http.StatusServiceUnavailable, "Опашката за бланки не е налична").Write(w)
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "render queue not available"})
		return
	}
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.events.LogError(ctx, "Render job enqueue failed", err, applog.ComponentAMQP, applog.OpEnqueue)
	}
	if isHTMX(r) {
		ErrorResponse(status, msg).Write(w)
		return
	}
	writeJSONError(w, err)
}

func (s *Server) parseRenderJob(r *http.Request) (render.Snapshot, render.PrintDetails, error) {
	var (
		snap    render.Snapshot
		details render.PrintDetails
		err     error
	)
	if isJSON(r) {
		var req renderJobRequest
		if err = decodeJSON(r, &req); err != nil {
			return snap, details, err
		}
		switch {
		case req.Snapshot != "":
			snap, err = decodeSnapshot(req.Snapshot)
		case req.Declaration != nil:
			snap, err = s.calculate(r.Context(), *req.Declaration)
		default:
			err = badRequest("Липсва изчисление", nil)
		}
		if err != nil {
			return snap, details, err
		}
		details, err = req.Details.toPrintDetails()
		return snap, details, err
	}

	if err = parseForm(r); err != nil {
		return snap, details, err
	}
	if snap, err = s.snapshotFromForm(r.Context(), r); err != nil {
		return snap, details, err
	}
	details, err = printDetailsFromForm(r.Form).toPrintDetails()
	return snap, details, err
}

func (s *Server) handleListPayers(w http.ResponseWriter, r *http.Request) {
	payers := []core.Payer{}
	if s.payers != nil {
		list, err := s.payers.ListPayers(r.Context())
		if err != nil {
			s.events.LogError(r.Context(), "Payer list failed", err, applog.ComponentPayers, applog.OpList)
			writeJSONError(w, err)
			return
		}
		payers = append(payers, list...)
	}
	writeJSON(w, http.StatusOK, payers)
}

func (s *Server) handleFindPayer(w http.ResponseWriter, r *http.Request) {
	eik := strings.TrimSpace(r.PathValue("eik"))
	if err := core.ValidateEIK(eik); err != nil {
		writeJSONError(w, err)
		return
	}
	if s.payers == nil {
		writeJSONError(w, core.ErrPayerNotFound)
		return
	}
	payer, err := s.payers.FindPayer(r.Context(), eik)
	if err != nil {
		if !errors.Is(err, core.ErrPayerNotFound) {
			s.events.LogError(r.Context(), "Payer lookup failed", err, applog.ComponentPayers, applog.OpFind)
		}
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payer)
}

func (s *Server) handleSavePayer(w http.ResponseWriter, r *http.Request) {
	if s.payerWriter == nil {
		w.Header().Set("Allow", "GET")
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "payer directory is read-only"})
		return
	}
	var payer core.Payer
	if err := decodeJSON(r, &payer); err != nil {
		writeJSONError(w, err)
		return
	}
	payer.Name = sanitizeInput(payer.Name)
	payer.EIK = sanitizeInput(payer.EIK)
	payer.NAPOffice = sanitizeInput(payer.NAPOffice)
	if err := payer.Validate(); err != nil {
		writeJSONError(w, err)
		return
	}
	if err := s.payerWriter.SavePayer(r.Context(), payer); err != nil {
		s.events.LogError(r.Context(), "Payer save failed", err, applog.ComponentPayers, "save")
		writeJSONError(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Payer saved", applog.FieldEIK, payer.EIK)
	writeJSON(w, http.StatusCreated, payer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks templates and the payer backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "payers": "ok", "queue": "not_configured"}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			checks["payers"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}
	if s.service.QueueAvailable() {
		checks["queue"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n", name, help, name, kind, name, value)
	}
	requests := s.tracer.GetMetrics()
	metric("http_requests_total", "counter", "Total number of HTTP requests", requests.TotalRequests)
	metric("http_request_duration_avg_seconds", "gauge", "Average request duration", requests.AverageResponseTime.Seconds())
	metric("statements_calculated_total", "counter", "Statements calculated", s.calculations.Load())
	metric("documents_rendered_total", "counter", "Forms rendered synchronously", s.documents.Load())
	metric("render_jobs_queued_total", "counter", "Render jobs published", s.jobs.Load())
	metric("rate_limit_rejected_total", "counter", "Requests refused by the rate limiter", s.limiter.Rejected())
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", s.limiter.ActiveClients())
	metric("suspicious_requests_total", "counter", "Requests rejected as suspicious", s.detector.SuspiciousCount())
	if ps, ok := s.payers.(payerStats); ok {
		st := ps.Stats()
		metric("payer_cache_hits_total", "counter", "Payer cache hits", st.Hits)
		metric("payer_cache_misses_total", "counter", "Payer cache misses", st.Misses)
		metric("payer_cache_entries", "gauge", "Payer cache entries", st.Size)
	}
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.startedAt).Seconds()))
}
