package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/okian/drivescore/internal/domain/model"
)

// Request body budget: samples beyond the cap never reach memory.
const (
	bytesPerSample = 256
	bodyOverhead   = 4096
)

// maxBodyBytes is the largest body accepted for a cap of limit samples.
func maxBodyBytes(limit int) int64 {
	return int64(limit)*bytesPerSample + bodyOverhead
}

// sessionRequest is the JSON body of POST /sessions.
type sessionRequest struct {
	Samples []model.Sample `json:"samples"`
}

// sessionResponse is returned for a scored session.
type sessionResponse struct {
	SessionID       string    `json:"session_id"`
	RawScores       []float64 `json:"raw_scores"`
	TotalRaw        float64   `json:"total_raw"`
	TotalMax        float64   `json:"total_max"`
	NormalizedScore float64   `json:"normalized_score"`
}

// SessionsHandler scores submitted sessions.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandlePostSession handles POST /sessions requests. JSON bodies carry
// samples directly; text/plain bodies carry a recorded log.
func (h *SessionsHandler) HandlePostSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	limit := h.deps.MaxSamples()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes(limit))

	var (
		res model.SessionResult
		err error
	)
	if isPlainText(r.Header.Get("Content-Type")) {
		res, err = h.deps.ScoreReader(r.Context(), r.Body)
	} else {
		var req sessionRequest
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			if isBodyTooLarge(derr) {
				writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, derr))
				return
			}
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, derr))
			return
		}
		if len(req.Samples) > limit {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				WrapKind(op, ErrTooLarge, fmt.Errorf("%d samples exceeds limit %d", len(req.Samples), limit)))
			return
		}
		res, err = h.deps.ScoreSamples(r.Context(), req.Samples)
	}

	if err != nil {
		status, code, kind := classify(err)
		writeError(w, status, code, WrapKind(op, kind, err))
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:       res.ID,
		RawScores:       res.RawScores,
		TotalRaw:        res.TotalRaw,
		TotalMax:        res.TotalMax,
		NormalizedScore: res.NormalizedScore,
	})
}

func classify(err error) (int, string, error) {
	switch {
	case isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge, "too_large", ErrTooLarge
	case errors.Is(err, model.ErrInvalidSample):
		return http.StatusUnprocessableEntity, "invalid_sample", ErrUnprocessable
	case errors.Is(err, model.ErrTooManySamples):
		return http.StatusRequestEntityTooLarge, "too_large", ErrTooLarge
	default:
		return http.StatusInternalServerError, "internal", ErrInternal
	}
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func isPlainText(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/plain"
}
