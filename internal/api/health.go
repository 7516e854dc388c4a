package api

import (
	"context"
	"net/http"
)

// Pinger verifies connectivity to a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// health is a liveness probe for Docker/Kubernetes.
func health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness reports 200 only when the passage store is reachable.
func readiness(pinger Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pinger == nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store not configured"})
			return
		}
		if err := pinger.Ping(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store not ready"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}
