package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/hifz/internal/api/shared"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/platform/logger"
	"github.com/phrazzld/hifz/internal/redact"
	"github.com/phrazzld/hifz/internal/service/memorization"
)

// MemorizationHandler serves the memorization engine over HTTP.
type MemorizationHandler struct {
	service memorization.Service
	logger  *slog.Logger
	now     func() time.Time
}

// NewMemorizationHandler creates a MemorizationHandler.
func NewMemorizationHandler(service memorization.Service, logger *slog.Logger) *MemorizationHandler {
	if service == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("memorization service cannot be nil for MemorizationHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for MemorizationHandler")
	}
	return &MemorizationHandler{
		service: service,
		logger:  logger.With(slog.String("component", "memorization_handler")),
		now:     time.Now,
	}
}

// Routes mounts the handler under /users/{userID}.
func (h *MemorizationHandler) Routes(r chi.Router) {
	r.Route("/users/{"+UserIDParam+"}", func(r chi.Router) {
		r.Get("/subjects", h.ListRecords)
		r.Get("/subjects/{"+SubjectIDParam+"}", h.GetRecord)
		r.Put("/subjects/{"+SubjectIDParam+"}", h.StartSubject)
		r.Post("/subjects/{"+SubjectIDParam+"}/practice", h.RecordPractice)
		r.Get("/reviews", h.GetDueReviews)
		r.Get("/summary", h.GetSummary)
		r.Post("/activity", h.RecordActivity)
	})
}

// RecordPractice handles POST /users/{userID}/subjects/{subjectID}/practice
func (h *MemorizationHandler) RecordPractice(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, subjectID, ok := handleUserAndSubject(w, r, log)
	if !ok {
		return
	}

	var req PracticeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	record, err := h.service.RecordPractice(r.Context(), userID, subjectID, *req.Accuracy)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record practice")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(record))
}

// StartSubject handles PUT /users/{userID}/subjects/{subjectID}
func (h *MemorizationHandler) StartSubject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, subjectID, ok := handleUserAndSubject(w, r, log)
	if !ok {
		return
	}

	var req StartSubjectRequest
	if err := shared.DecodeOptionalJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	record, err := h.service.StartSubject(r.Context(), userID, subjectID, req.DisplayName)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start subject")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(record))
}

// GetRecord handles GET /users/{userID}/subjects/{subjectID}
func (h *MemorizationHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, subjectID, ok := handleUserAndSubject(w, r, log)
	if !ok {
		return
	}

	record, err := h.service.GetRecord(r.Context(), userID, subjectID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get record")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(record))
}

// ListRecords handles GET /users/{userID}/subjects
func (h *MemorizationHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.service.ListRecords(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list records")
		return
	}

	resp := RecordListResponse{Subjects: make([]RecordResponse, 0, len(records))}
	for _, rec := range records {
		resp.Subjects = append(resp.Subjects, recordToResponse(rec))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetDueReviews handles GET /users/{userID}/reviews?as_of=RFC3339
//
// A store failure yields an empty, degraded list rather than an error.
func (h *MemorizationHandler) GetDueReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, err := getPathUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if asOf.IsZero() {
		asOf = h.now()
	}

	resp := ReviewsResponse{AsOf: asOf}
	reviews, err := h.service.GetDueReviews(r.Context(), userID, asOf)
	if err != nil {
		log.Error("due reviews unavailable, returning empty list",
			slog.String("user_id", userID.String()),
			slog.String("error", redact.Error(err)))
		reviews = []domain.ReviewEntry{}
		resp.Degraded = true
	}
	resp.Reviews = reviews

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetSummary handles GET /users/{userID}/summary
//
// A store failure yields a zero, degraded summary rather than an error.
func (h *MemorizationHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, err := getPathUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	summary, err := h.service.GetSummary(r.Context(), userID)
	if err != nil {
		log.Error("summary unavailable, returning zero summary",
			slog.String("user_id", userID.String()),
			slog.String("error", redact.Error(err)))
		shared.RespondWithJSON(w, r, http.StatusOK, SummaryResponse{Degraded: true})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SummaryResponse{Summary: summary})
}

// RecordActivity handles POST /users/{userID}/activity
func (h *MemorizationHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req ActivityRequest
	if err := shared.DecodeOptionalJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	var asOf time.Time
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	streak, err := h.service.RecordDailyActivity(r.Context(), userID, asOf)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record activity")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, streakToResponse(streak))
}
