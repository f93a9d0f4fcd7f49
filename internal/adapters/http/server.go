package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"deskmatch/internal/domain"
	"deskmatch/internal/ports"
	"deskmatch/internal/services/importer"
	"deskmatch/internal/services/reconcile"
	"deskmatch/internal/services/reports"
)

// Server exposes the reconciliation backend over REST. CSV goes in and out
// as raw request/response bodies; everything else is JSON.
type Server struct {
	importer   *importer.Service
	reconciler *reconcile.Service
	reports    *reports.Service
	tickets    ports.TicketRepository
	log        *zap.Logger
}

func New(imp *importer.Service, rec *reconcile.Service, rep *reports.Service, tickets ports.TicketRepository, log *zap.Logger) *Server {
	return &Server{importer: imp, reconciler: rec, reports: rep, tickets: tickets, log: log}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Post("/reference/import", s.handleReferenceImport)
	r.Post("/tickets/import", s.handleTicketImport)
	r.Post("/reconcile", s.handleReconcile)
	r.Get("/tickets/{ticket}", s.handleGetTicket)
	r.Post("/tickets/{ticket}/email", s.handleTicketEmail)
	r.Get("/stats", s.handleStats)
	r.Post("/reports/export", s.handleExport)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReferenceImport loads an ERP CSV export from the request body and
// then runs a full reconciliation pass, mirroring the batch update flow.
// ?replace=false upserts instead of clearing first.
func (s *Server) handleReferenceImport(w http.ResponseWriter, r *http.Request) {
	replace := true
	if v := r.URL.Query().Get("replace"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid replace parameter")
			return
		}
		replace = parsed
	}

	loaded, err := s.importer.LoadReferenceCSV(r.Context(), r.Body, replace)
	if err != nil {
		s.log.Warn("reference import failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	matched, err := s.reconciler.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"loaded": loaded, "matched": matched})
}

func (s *Server) handleTicketImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.importer.LoadTicketsCSV(r.Context(), r.Body)
	if err != nil {
		s.log.Warn("ticket import failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": res.Created, "updated": res.Updated})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	matched, err := s.reconciler.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"matched": matched})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := s.tickets.Get(r.Context(), chi.URLParam(r, "ticket"))
	if err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ticketView(t))
}

func ticketView(t domain.Ticket) ticketResponse {
	return ticketResponse{
		Ticket:           t.Ticket,
		ShortDescription: t.ShortDescription,
		EmailDomain:      t.EmailDomain,
		AccountNumber:    t.AccountNumber,
		AccountName:      t.AccountName,
		ExtractedText:    t.ExtractedText,
		ExtractionStatus: string(t.ExtractionStatus),
	}
}

type ticketResponse struct {
	Ticket           string  `json:"ticket"`
	ShortDescription string  `json:"short_description"`
	EmailDomain      string  `json:"eml_domain"`
	AccountNumber    *string `json:"account_number"`
	AccountName      *string `json:"account_name"`
	ExtractedText    *string `json:"extracted_text"`
	ExtractionStatus string  `json:"extraction_status"`
}

// handleTicketEmail receives a fetched email body as plain text. An empty
// body is valid and marks the ticket nothing-to-extract.
func (s *Server) handleTicketEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	ticket := chi.URLParam(r, "ticket")
	if err := s.reconciler.RecordEmailBody(r.Context(), ticket, string(body)); err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ticket": ticket})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reports.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalTickets:           stats.TotalTickets,
		MatchedTickets:         stats.MatchedTickets,
		MatchPercentage:        stats.MatchPercentage(),
		ExtractedCount:         stats.ExtractedCount,
		NothingToExtractCount:  stats.NothingToExtractCount,
		PendingExtractionCount: stats.PendingExtractionCount,
		ReferenceRecords:       stats.ReferenceRecords,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tickets.csv"`)
	if _, err := s.reports.ExportCSV(r.Context(), w, req.Tickets); err != nil {
		// Headers are gone already; log and give up on the body.
		s.log.Warn("export failed", zap.Error(err))
	}
}

type exportRequest struct {
	Tickets []string `json:"tickets"`
}

type statsResponse struct {
	TotalTickets           int     `json:"total_tickets"`
	MatchedTickets         int     `json:"matched_tickets"`
	MatchPercentage        float64 `json:"match_percentage"`
	ExtractedCount         int     `json:"extracted_count"`
	NothingToExtractCount  int     `json:"nothing_to_extract_count"`
	PendingExtractionCount int     `json:"pending_extraction_count"`
	ReferenceRecords       int     `json:"reference_records"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
