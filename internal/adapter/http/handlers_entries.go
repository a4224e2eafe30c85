package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"trainingdiary/internal/app"
	"trainingdiary/internal/domain"
	"trainingdiary/internal/drawing"

	"go.uber.org/zap"
)

// entryView is the JSON shape of a stored entry. Drawing is a PNG data URL,
// empty when the entry has none.
type entryView struct {
	ID            int64         `json:"id"`
	DiaryDate     string        `json:"diaryDate"`
	Status        domain.Status `json:"status"`
	Good          string        `json:"good"`
	Bad           string        `json:"bad"`
	CoachFeedback string        `json:"coachFeedback"`
	Drawing       string        `json:"drawing"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func newEntryView(e domain.DiaryEntry) entryView {
	return entryView{
		ID:            e.ID,
		DiaryDate:     e.DiaryDate,
		Status:        e.Status,
		Good:          e.Good,
		Bad:           e.Bad,
		CoachFeedback: e.CoachFeedback,
		Drawing:       drawing.DataURL(e.Drawing),
		CreatedAt:     e.CreatedAt,
	}
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		entries, err := s.entries.List(ctx)
		if err != nil {
			s.serverError(w, "list entries", err)
			return
		}
		items := make([]entryView, 0, len(entries))
		for _, e := range entries {
			items = append(items, newEntryView(e))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body struct {
			Date          string          `json:"date"`
			Status        string          `json:"status"`
			Good          string          `json:"good"`
			Bad           string          `json:"bad"`
			CoachFeedback string          `json:"coachFeedback"`
			Drawing       string          `json:"drawing"`
			OverlayPixels json.RawMessage `json:"overlayPixels"`
		}
		if err := parseJSON(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		res, err := s.entries.Submit(ctx, app.SubmitInput{
			Date:           body.Date,
			Status:         domain.Status(body.Status),
			Good:           body.Good,
			Bad:            body.Bad,
			CoachFeedback:  body.CoachFeedback,
			DrawingDataURL: body.Drawing,
			OverlayPixels:  body.OverlayPixels,
		})
		if errors.Is(err, app.ErrInvalidStatus) || errors.Is(err, app.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			s.serverError(w, "submit entry", err)
			return
		}
		writeJSON(w, http.StatusCreated, res)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.entries.Get(r.Context(), id)
		if errors.Is(err, app.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			s.serverError(w, "get entry", err)
			return
		}
		writeJSON(w, http.StatusOK, newEntryView(*e))

	case http.MethodDelete:
		deleted, err := s.entries.Delete(r.Context(), id)
		if err != nil {
			s.serverError(w, "delete entry", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEntryDrawing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.entries.Drawing(r.Context(), id)
	if errors.Is(err, app.ErrEntryNotFound) || (err == nil && len(b) == 0) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, "get drawing", err)
		return
	}
	writePNG(w, b)
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, err)
}
