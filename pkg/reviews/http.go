package reviews

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/theflex/reviews/pkg/common/logger"
	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/runs"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/reviews/hostaway", h.handleQuery).Methods(http.MethodGet)
	router.HandleFunc("/reviews/hostaway", h.handleIngest).Methods(http.MethodPost)
	router.HandleFunc("/reviews/hostaway/runs/latest", h.handleLatestRun).Methods(http.MethodGet)
	router.HandleFunc("/reviews/approve", h.handleApprove).Methods(http.MethodPost)
	router.HandleFunc("/properties/{slug}", h.handleProperty).Methods(http.MethodGet)
}

type ingestRequest struct {
	Source string `json:"source"`
}

func (h *HTTPHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, err := ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.service.Query(r.Context(), req)
	if err != nil {
		logger.Log.WithError(err).Error("failed to query reviews")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if res.Fallback != "" {
		writeJSONStatus(w, http.StatusBadGateway, res)
		return
	}
	writeJSON(w, res)
}

func (h *HTTPHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	// A missing or unreadable body means the fixture.
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Source = string(models.SourceMock)
	}

	res, err := h.service.Ingest(r.Context(), models.ParseSourceKind(req.Source))
	if err != nil {
		logger.Log.WithError(err).Error("failed to ingest reviews")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

type approvalResponse struct {
	OK bool `json:"ok"`
	models.ApprovalResult
}

func (h *HTTPHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid approval payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Approve(r.Context(), req)
	if err != nil {
		if IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "review not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to update approval")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, approvalResponse{OK: true, ApprovalResult: res})
}

func (h *HTTPHandler) handleProperty(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Property(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			http.Error(w, "property not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to load property")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, page)
}

func (h *HTTPHandler) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.LatestRun(r.Context())
	if err != nil {
		if errors.Is(err, runs.ErrNoRuns) {
			http.Error(w, "no ingestion run recorded", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch latest run")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.WithError(err).Error("failed to write json response")
	}
}
