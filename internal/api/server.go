// Package api exposes the settlement engine and the response service over
// HTTP. Authentication is delegated to the fronting proxy; handlers trust the
// X-User-Id header for caller identity.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"surveypay-settlement-go/internal/eligibility"
	"surveypay-settlement-go/internal/response"
	"surveypay-settlement-go/internal/settlement"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

const (
	userIdHeader    = "X-User-Id"
	signatureHeader = "Chapa-Signature"

	maxRequestBody = 1 << 20
)

// Server routes settlement and response operations.
type Server struct {
	engine    *settlement.Engine
	responses *response.Service
	http      *http.Server
}

func NewServer(addr string, engine *settlement.Engine, responses *response.Service) *Server {
	s := &Server{
		engine:    engine,
		responses: responses,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /payment/fund", s.handleFund)
	mux.HandleFunc("GET /payment/callback", s.handleCallback)
	mux.HandleFunc("POST /payment/callback", s.handleCallback)
	mux.HandleFunc("POST /payment/withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /payment/refund", s.handleRefund)
	mux.HandleFunc("POST /payment/approve", s.handleApprove)
	mux.HandleFunc("POST /payment/server-approval", s.handleServerApproval)
	mux.HandleFunc("GET /payment/banks", s.handleBanks)
	mux.HandleFunc("GET /payments", s.handleListPayments)
	mux.HandleFunc("GET /payments/{reference}", s.handleGetPayment)
	mux.HandleFunc("POST /responses", s.handleSubmitResponse)
	mux.HandleFunc("GET /surveys/{id}/answers", s.handleSurveyAnswers)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	zap.L().Info("HTTP server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	userId := r.Header.Get(userIdHeader)
	if userId == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userIdHeader+" header")
		return
	}
	var req settlement.FundRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.Fund(r.Context(), userId, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("trx_ref")
	if reference == "" {
		reference = r.URL.Query().Get("reference")
	}
	// The provider POSTs the reference in the body when it does not redirect.
	if reference == "" && r.Method == http.MethodPost {
		var body struct {
			TrxRef    string `json:"trx_ref"`
			Reference string `json:"reference"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&body); err == nil {
			reference = body.TrxRef
			if reference == "" {
				reference = body.Reference
			}
		}
	}
	result, err := s.engine.HandleCallback(r.Context(), reference)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if result.Status != 0 {
		status = result.Status
	}
	writeJSON(w, status, result)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	userId := r.Header.Get(userIdHeader)
	if userId == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userIdHeader+" header")
		return
	}
	var req settlement.WithdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.Withdraw(r.Context(), userId, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	userId := r.Header.Get(userIdHeader)
	if userId == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userIdHeader+" header")
		return
	}
	var req settlement.RefundRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.engine.Refund(r.Context(), userId, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reference string `json:"reference"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}
	result, err := s.engine.ApprovePayment(r.Context(), req.Reference)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleServerApproval reads the raw body before any decoding so the HMAC is
// computed over the exact bytes the provider signed.
func (s *Server) handleServerApproval(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}
	result, err := s.engine.ServerApproval(r.Context(), rawBody, r.Header.Get(signatureHeader))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.engine.ListBanks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, banks)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	payments, err := s.engine.ListPayments(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.engine.GetPayment(r.Context(), r.PathValue("reference"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	userId := r.Header.Get(userIdHeader)
	if userId == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userIdHeader+" header")
		return
	}
	var req struct {
		SurveyId string                 `json:"surveyId"`
		Answers  []response.AnswerInput `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SurveyId == "" {
		writeError(w, http.StatusBadRequest, "surveyId is required")
		return
	}
	result, err := s.responses.SubmitResponse(r.Context(), userId, req.SurveyId, req.Answers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleSurveyAnswers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	answers, err := s.responses.GetSurveyAnswers(r.Context(), r.PathValue("id"), page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// writeDomainError maps the engine's sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var eligibilityErr *eligibility.Error
	switch {
	case errors.Is(err, store.ErrPaymentNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrSurveyNotFound),
		errors.Is(err, store.ErrWalletNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, settlement.ErrBadSignature):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrAlreadyResponded),
		errors.Is(err, store.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, settlement.ErrMissingReference),
		errors.Is(err, settlement.ErrNoRefundable),
		errors.Is(err, settlement.ErrObligationsExceedBalance),
		errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, response.ErrQuestionNotInSurvey),
		errors.As(err, &eligibilityErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}
