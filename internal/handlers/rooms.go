// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/tienlen/internal/room"
)

// ListRoomsHandler returns the live rooms as JSON.
func ListRoomsHandler(reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reg.Rooms())
	}
}

// HealthHandler answers "ok".
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("ok"))
}
