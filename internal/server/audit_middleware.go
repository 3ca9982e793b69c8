package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// auditLogMiddleware records every administrative mutation: who did
// what to which order, including the old and new status for status
// edits. Read-only requests pass through unrecorded.
func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		entry := AuditLogEntry{
			Timestamp:   time.Now().UTC(),
			Method:      r.Method,
			Path:        r.URL.Path,
			Handler:     handlerName(r),
			OrderNumber: mux.Vars(r)["order_number"],
		}

		if username, _, ok := r.BasicAuth(); ok {
			entry.User = username
		}

		if r.Body != nil {
			requestBody, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			entry.Request = string(requestBody)

			if entry.OrderNumber != "" {
				var statusRequest struct {
					Status string `json:"status"`
				}
				if err := json.Unmarshal(requestBody, &statusRequest); err == nil && statusRequest.Status != "" {
					if order, err := s.storage.GetOrder(r.Context(), entry.OrderNumber); err == nil {
						entry.OldStatus = string(order.Status)
						entry.NewStatus = statusRequest.Status
					}
				}
			}
		}

		wrw := newResponseWriterWrapper(w)

		next.ServeHTTP(wrw, r)

		entry.StatusCode = wrw.GetStatusCode()
		entry.Response = string(wrw.GetBody())

		s.auditManager.LogEntry(r.Context(), entry)
	})
}

func handlerName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return "unknown"
}
