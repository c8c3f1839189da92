package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

const maxEventBodyBytes = 64 << 10

// handlePublishStageEvent accepts a stage status change and queues it.
// Responds 202 with the event ID; delivery happens asynchronously.
func (s *Server) handlePublishStageEvent(w http.ResponseWriter, r *http.Request) {
	var ev notification.StageEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	id, err := s.notificationSvc.PublishStageEvent(ev)
	if err != nil {
		s.writeServiceError(w, "queueing event", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"event_id": id})
}
