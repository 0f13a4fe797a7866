package in

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"staywithme/internal/modules/checkin/dto"
	checkinin "staywithme/internal/modules/checkin/port/in"
	apperrors "staywithme/internal/platform/errors"
)

// HTTPHandler exposes the active session to companion devices on the local
// network: status polling and remote check-in.
type HTTPHandler struct {
	usecase checkinin.Usecase
	log     *zap.SugaredLogger
}

func NewHTTPHandler(usecase checkinin.Usecase, log *zap.SugaredLogger) HTTPHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return HTTPHandler{usecase: usecase, log: log}
}

type statusResponse struct {
	SessionID        string     `json:"session_id"`
	StartedAt        time.Time  `json:"started_at"`
	EndsAt           time.Time  `json:"ends_at"`
	Level            int        `json:"level"`
	LevelName        string     `json:"level_name"`
	IntervalMinutes  int        `json:"interval_minutes"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	Expired          bool       `json:"expired"`
	LastConfirmedAt  *time.Time `json:"last_confirmed_at,omitempty"`
	NextCheckInAt    *time.Time `json:"next_check_in_at,omitempty"`
	UrgentAt         *time.Time `json:"urgent_at,omitempty"`
}

type evaluateResponse struct {
	SessionID     string `json:"session_id"`
	PreviousLevel int    `json:"previous_level"`
	Level         int    `json:"level"`
	Dispatched    bool   `json:"dispatched"`
	Expired       bool   `json:"expired"`
}

// Routes registers the session endpoints on r.
func (h HTTPHandler) Routes(r *mux.Router) {
	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/session", h.getStatus).Methods(http.MethodGet)
	api.HandleFunc("/session/checkin", h.postCheckIn).Methods(http.MethodPost)
	api.HandleFunc("/session/evaluate", h.postEvaluate).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
}

func (h HTTPHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.usecase.Status(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(status))
}

func (h HTTPHandler) postCheckIn(w http.ResponseWriter, r *http.Request) {
	status, err := h.usecase.Confirm(r.Context(), "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Infow("remote check-in", "session", status.Session.ID, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, toStatusResponse(status))
}

func (h HTTPHandler) postEvaluate(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Evaluate(r.Context(), "", dto.SourceRemote)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{
		SessionID:     out.SessionID,
		PreviousLevel: out.PreviousLevel,
		Level:         out.Level,
		Dispatched:    out.Dispatched,
		Expired:       out.Expired,
	})
}

func (h HTTPHandler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNoActiveSession), errors.Is(err, apperrors.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrStaleWrite):
		code = http.StatusConflict
	default:
		h.log.Errorw("request failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func toStatusResponse(status dto.StatusOutput) statusResponse {
	resp := statusResponse{
		SessionID:        status.Session.ID,
		StartedAt:        status.Session.StartedAt,
		EndsAt:           status.Session.EndsAt,
		Level:            status.Level,
		LevelName:        status.LevelName,
		IntervalMinutes:  status.IntervalMinutes,
		RemainingSeconds: int64(status.Remaining / time.Second),
		Expired:          status.Expired,
		LastConfirmedAt:  status.Session.LastConfirmedAt,
	}
	if status.CheckInReachable {
		at := status.NextCheckInAt
		resp.NextCheckInAt = &at
	}
	if status.UrgentReachable {
		at := status.UrgentAt
		resp.UrgentAt = &at
	}
	return resp
}
