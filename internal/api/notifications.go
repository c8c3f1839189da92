package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shaharia-lab/mailnotify/internal/storage"
)

// handleListDeliveries returns recent delivery log entries.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.notificationSvc.ListLog(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, "listing deliveries", err)
		return
	}
	if entries == nil {
		entries = []storage.DeliveryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetSMTPSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.notificationSvc.GetSettings())
}

type testNotificationRequest struct {
	Recipient string `json:"recipient"`
}

type testNotificationResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleTestNotification sends a test mail synchronously and reports the outcome.
// A failed delivery is still a 200: the request itself succeeded.
func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	var req testNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	res, err := s.notificationSvc.TestNotification(r.Context(), req.Recipient)
	if err != nil {
		s.writeServiceError(w, "sending test notification", err)
		return
	}

	resp := testNotificationResponse{Status: res.Status()}
	if !res.OK() {
		resp.Reason = res.Reason.String()
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
