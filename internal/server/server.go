// Package server exposes the calculators and the application wizard over a
// JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bankim/loan-engine/internal/i18n"
	"github.com/bankim/loan-engine/internal/metrics"
	"github.com/bankim/loan-engine/internal/quote"
	"github.com/bankim/loan-engine/internal/validation"
	"github.com/bankim/loan-engine/internal/wizard"
	"github.com/bankim/loan-engine/pkg/amortization"
	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/bankim/loan-engine/pkg/output"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// Services are the components the handler serves.
type Services struct {
	Registry *wizard.Registry
	Engine   *validation.Engine
	Quotes   *quote.Service
	Catalog  *i18n.Catalog
	Schedule *amortization.ScheduleGenerator
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	services      Services
	schemas       map[string]*gojsonschema.Schema
}

// NewHandler constructs the HTTP handler for the calculator and wizard API.
func NewHandler(logger *zap.Logger, services Services, maxUploadSize int64, version string) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if services.Registry == nil || services.Engine == nil || services.Quotes == nil {
		return nil, errors.New("server requires a registry, a validation engine and a quote service")
	}
	if services.Catalog == nil {
		services.Catalog = i18n.Default()
	}
	if services.Schedule == nil {
		services.Schedule = amortization.NewScheduleGenerator(logger)
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		services:      services,
		schemas:       schemas,
	}

	mux := http.NewServeMux()

	// Stateless calculators
	h.handle(mux, "POST /api/calc/payment", h.handlePayment)
	h.handle(mux, "POST /api/calc/term", h.handleTerm)
	h.handle(mux, "POST /api/calc/remaining", h.handleRemaining)
	h.handle(mux, "POST /api/calc/annuity", h.handleAnnuity)
	h.handle(mux, "POST /api/calc/schedule", h.handleSchedule)

	// Wizard sessions
	h.handle(mux, "POST /api/wizard", h.handleCreateSession)
	h.handle(mux, "GET /api/wizard/{id}", h.handleGetSession)
	h.handle(mux, "PATCH /api/wizard/{id}", h.handleUpdateSession)
	h.handle(mux, "DELETE /api/wizard/{id}", h.handleDeleteSession)
	h.handle(mux, "PATCH /api/wizard/{id}/borrowers/{borrower}", h.handleUpdateBorrower)
	h.handle(mux, "DELETE /api/wizard/{id}/borrowers/{borrower}", h.handleRemoveBorrower)
	h.handle(mux, "POST /api/wizard/{id}/steps/{step}", h.handleAdvance)
	h.handle(mux, "POST /api/wizard/{id}/submit", h.handleSubmit)
	h.handle(mux, "GET /api/wizard/{id}/quote", h.handleQuote)

	// Version endpoint for UI metadata
	h.handle(mux, "GET /api/version", h.handleVersion)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *handler) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		metrics.RequestDuration.WithLabelValues(pattern, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decode reads a size-limited body, checks it against the named schema and
// unmarshals it into dst. It writes the error response itself.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, schema string, dst any, op string) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return false
	}
	if s, ok := h.schemas[schema]; ok {
		if err := checkSchema(s, body); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return false
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

type calcResponse struct {
	Calculator        string              `json:"calculator"`
	AnnualRatePercent float64             `json:"annualRatePercent"`
	Result            amortization.Result `json:"result"`
}

type paymentRequest struct {
	TotalAmount       *float64 `json:"totalAmount"`
	DownPayment       *float64 `json:"downPayment"`
	TermYears         float64  `json:"termYears"`
	AnnualRatePercent *float64 `json:"annualRatePercent"`
}

func (h *handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !h.decode(w, r, "payment", &req, "server.handlePayment") {
		return
	}
	rate, ok := h.rateFor(w, req.AnnualRatePercent, wizard.MortgageCalculation, "server.handlePayment")
	if !ok {
		return
	}
	h.respondCalc(w, "monthly_payment", rate, amortization.MonthlyPayment(req.TotalAmount, req.DownPayment, req.TermYears, rate))
}

type termRequest struct {
	TotalAmount       *float64 `json:"totalAmount"`
	DownPayment       *float64 `json:"downPayment"`
	MonthlyPayment    float64  `json:"monthlyPayment"`
	AnnualRatePercent *float64 `json:"annualRatePercent"`
}

func (h *handler) handleTerm(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if !h.decode(w, r, "term", &req, "server.handleTerm") {
		return
	}
	rate, ok := h.rateFor(w, req.AnnualRatePercent, wizard.MortgageCalculation, "server.handleTerm")
	if !ok {
		return
	}
	h.respondCalc(w, "term_years", rate, amortization.TermYears(req.TotalAmount, req.DownPayment, req.MonthlyPayment, rate))
}

type remainingRequest struct {
	RemainingPrincipal *float64 `json:"remainingPrincipal"`
	TermYears          float64  `json:"termYears"`
	AnnualRatePercent  *float64 `json:"annualRatePercent"`
}

func (h *handler) handleRemaining(w http.ResponseWriter, r *http.Request) {
	var req remainingRequest
	if !h.decode(w, r, "remaining", &req, "server.handleRemaining") {
		return
	}
	rate, ok := h.rateFor(w, req.AnnualRatePercent, wizard.MortgageRefinance, "server.handleRemaining")
	if !ok {
		return
	}
	h.respondCalc(w, "remaining_amount", rate, amortization.RemainingAmount(req.RemainingPrincipal, req.TermYears, rate))
}

type annuityRequest struct {
	Principal         float64  `json:"principal"`
	TermYears         float64  `json:"termYears"`
	AnnualRatePercent *float64 `json:"annualRatePercent"`
}

func (h *handler) handleAnnuity(w http.ResponseWriter, r *http.Request) {
	var req annuityRequest
	if !h.decode(w, r, "annuity", &req, "server.handleAnnuity") {
		return
	}
	rate, ok := h.rateFor(w, req.AnnualRatePercent, wizard.CreditCalculation, "server.handleAnnuity")
	if !ok {
		return
	}
	h.respondCalc(w, "annuity_payment", rate, amortization.AnnuityPayment(req.Principal, req.TermYears, rate))
}

// rateFor returns the requested rate, or the configured rate for flow. When
// neither is available it answers the request and reports false.
func (h *handler) rateFor(w http.ResponseWriter, requested *float64, flow wizard.Flow, op string) (float64, bool) {
	if requested != nil {
		return *requested, true
	}
	rate, err := h.services.Quotes.Rates().For(flow)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return 0, false
	}
	return rate, true
}

func (h *handler) respondCalc(w http.ResponseWriter, calculator string, rate, value float64) {
	result := amortization.NewResult(value)
	metrics.Calculations.WithLabelValues(calculator, string(result.Outcome)).Inc()
	h.writeJSON(w, http.StatusOK, calcResponse{Calculator: calculator, AnnualRatePercent: rate, Result: result})
}

type scheduleRequest struct {
	Name              string             `json:"name"`
	StartDate         string             `json:"startDate"`
	Principal         float64            `json:"principal"`
	DownPayment       float64            `json:"downPayment"`
	TermYears         int                `json:"termYears"`
	AnnualRatePercent *float64           `json:"annualRatePercent"`
	ExtraPayments     map[string]float64 `json:"extraPayments"`
}

type scheduleResponse struct {
	Payments      []amortization.Payment `json:"payments"`
	TotalInterest float64                `json:"totalInterest"`
	TotalPaid     float64                `json:"totalPaid"`
	CSV           string                 `json:"csv"`
	Duration      string                 `json:"duration"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	start := time.Now()

	var req scheduleRequest
	if !h.decode(w, r, "schedule", &req, op) {
		return
	}
	name := req.Name
	if name == "" {
		name = "loan"
	}
	rate, ok := h.rateFor(w, req.AnnualRatePercent, wizard.MortgageCalculation, op)
	if !ok {
		return
	}
	schedule, err := h.services.Schedule.Generate(amortization.LoanTerms{
		Name:              name,
		StartDate:         req.StartDate,
		Principal:         req.Principal,
		DownPayment:       req.DownPayment,
		TermYears:         req.TermYears,
		AnnualRatePercent: rate,
		ExtraPayments:     req.ExtraPayments,
	})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if r.URL.Query().Get("format") == constants.OutputFormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := output.CSVSchedule(w, schedule); err != nil {
			h.logger.Error("failed to write CSV response", zap.String("op", op), zap.Error(err))
		}
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("schedule computed",
		zap.String("op", op),
		zap.Int("payments", len(schedule)),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, scheduleResponse{
		Payments:      schedule,
		TotalInterest: amortization.TotalInterest(schedule),
		TotalPaid:     amortization.TotalPaid(schedule),
		CSV:           output.CSVString(schedule),
		Duration:      elapsed.String(),
	})
}

type sessionResponse struct {
	State    wizard.State        `json:"state"`
	Errors   []wizard.FieldError `json:"errors,omitempty"`
	Language string              `json:"language"`
}

func (h *handler) localizer(r *http.Request) i18n.Localizer {
	return h.services.Catalog.For(r.Header.Get("Accept-Language"))
}

func (h *handler) localize(loc i18n.Localizer, errs []wizard.FieldError) []wizard.FieldError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]wizard.FieldError, len(errs))
	for i, fe := range errs {
		fe.Message = loc.Message(fe.Key, fe.Message)
		out[i] = fe
	}
	return out
}

func (h *handler) respondSession(w http.ResponseWriter, r *http.Request, status int, state wizard.State, errs []wizard.FieldError) {
	loc := h.localizer(r)
	h.writeJSON(w, status, sessionResponse{
		State:    state,
		Errors:   h.localize(loc, errs),
		Language: loc.Language().String(),
	})
}

func (h *handler) session(w http.ResponseWriter, r *http.Request, op string) (*wizard.Session, bool) {
	session, err := h.services.Registry.Get(r.PathValue("id"))
	if err != nil {
		h.respondWizardError(w, err, op)
		return nil, false
	}
	return session, true
}

type createSessionRequest struct {
	Flow string `json:"flow"`
}

func (h *handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateSession"
	var req createSessionRequest
	if !h.decode(w, r, "createSession", &req, op) {
		return
	}
	session, err := h.services.Registry.Create(wizard.Flow(req.Flow))
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	state, err := session.Snapshot(r.Context())
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	h.respondSession(w, r, http.StatusCreated, state, nil)
}

// handleGetSession returns the record with the errors of the step the user is
// on, so a reloaded form can show them.
func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetSession"
	session, ok := h.session(w, r, op)
	if !ok {
		return
	}
	state, err := session.Snapshot(r.Context())
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	var errs []wizard.FieldError
	if state.Stage < wizard.Submitted {
		step := min(int(state.Stage)+1, wizard.Steps)
		result := h.services.Engine.WithMessages(h.localizer(r)).Validate(state.Flow, step, state)
		errs = onlyTouched(state, result.Errors)
	}
	h.respondSession(w, r, http.StatusOK, state, errs)
}

// onlyTouched keeps errors for fields the user has interacted with. Aggregate
// and co-borrower errors are kept.
func onlyTouched(state wizard.State, errs []wizard.FieldError) []wizard.FieldError {
	var out []wizard.FieldError
	for _, fe := range errs {
		field := fe.Field
		if i := strings.IndexAny(field, ".["); i >= 0 {
			field = field[:i]
		}
		if !state.Values.Has(field) && !state.Touched[field] {
			continue
		}
		out = append(out, fe)
	}
	return out
}

type updateRequest struct {
	Values  wizard.Values `json:"values"`
	Touched []string      `json:"touched"`
}

func (h *handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateSession"
	var req updateRequest
	if !h.decode(w, r, "update", &req, op) {
		return
	}
	session, ok := h.session(w, r, op)
	if !ok {
		return
	}
	state, err := session.Apply(r.Context(), req.Values)
	if err == nil && len(req.Touched) > 0 {
		state, err = session.Touch(r.Context(), req.Touched...)
	}
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	h.respondSession(w, r, http.StatusOK, state, nil)
}

func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Registry.Delete(r.PathValue("id")); err != nil {
		h.respondWizardError(w, err, "server.handleDeleteSession")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type borrowerRequest struct {
	Values wizard.Values `json:"values"`
}

func (h *handler) handleUpdateBorrower(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateBorrower"
	var req borrowerRequest
	if !h.decode(w, r, "borrower", &req, op) {
		return
	}
	session, ok := h.session(w, r, op)
	if !ok {
		return
	}
	state, err := session.ApplyBorrower(r.Context(), r.PathValue("borrower"), req.Values)
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	h.respondSession(w, r, http.StatusOK, state, nil)
}

func (h *handler) handleRemoveBorrower(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRemoveBorrower"
	session, ok := h.session(w, r, op)
	if !ok {
		return
	}
	state, err := session.RemoveBorrower(r.Context(), r.PathValue("borrower"))
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	h.respondSession(w, r, http.StatusOK, state, nil)
}

func (h *handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAdvance"
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid step %q", r.PathValue("step")), op)
		return
	}
	session, ok := h.session(w, r, op)
	if !ok {
		return
	}
	state, errs, err := session.Advance(r.Context(), step)
	if errors.Is(err, wizard.ErrValidation) {
		h.respondSession(w, r, http.StatusUnprocessableEntity, state, errs)
		return
	}
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	h.respondSession(w, r, http.StatusOK, state, nil)
}

func (h *handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSubmit"
	session, ok := h.session(w, r, op)
	if !ok {
		return
	}
	state, errs, err := session.Submit(r.Context())
	if errors.Is(err, wizard.ErrValidation) {
		h.respondSession(w, r, http.StatusUnprocessableEntity, state, errs)
		return
	}
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	h.logger.Info("application submitted",
		zap.String("op", op),
		zap.String("id", state.ID),
		zap.String("flow", string(state.Flow)),
	)
	h.respondSession(w, r, http.StatusOK, state, nil)
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleQuote"
	session, ok := h.session(w, r, op)
	if !ok {
		return
	}
	state, err := session.Snapshot(r.Context())
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	q, err := h.services.Quotes.Quote(r.Context(), state.Flow, state.Values)
	if err != nil {
		h.respondWizardError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound), errors.Is(err, wizard.ErrSessionClosed):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrUnknownFlow), errors.Is(err, wizard.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrSubmitted), errors.Is(err, wizard.ErrStepOutOfOrder):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quote.ErrRateUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func (h *handler) respondWizardError(w http.ResponseWriter, err error, op string) {
	h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
