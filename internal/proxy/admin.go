package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves cache statistics and entry management:
//
//	GET    /stats           counters and entry count
//	GET    /entries         stored entries, oldest first
//	DELETE /entries?key=K   drop one entry
//	DELETE /entries         drop every entry
func (s *Server) AdminHandler() http.Handler {
	router := mux.NewRouter()

	router.Path("/stats").Methods(http.MethodGet).HandlerFunc(s.handleStats)
	router.Path("/entries").Methods(http.MethodGet).HandlerFunc(s.handleListEntries)
	router.Path("/entries").
		Queries("key", "{key}").
		Methods(http.MethodDelete).
		HandlerFunc(s.handleDeleteEntry)
	router.Path("/entries").Methods(http.MethodDelete).HandlerFunc(s.handlePurge)

	return router
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cache().Stats())
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cache().Store().Entries())
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if !s.Cache().Delete(key) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no entry for key " + key})
		return
	}
	logrus.Infof("Deleted cache entry %s", key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	s.Cache().Purge()
	logrus.Infof("Purged response cache")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write admin response: %v", err)
	}
}
