package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jetsetgo/sidekick-setup/internal/apps"
)

type appUpload struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// writeAppError maps store errors to status codes
func (s *Server) writeAppError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, apps.ErrPreserved):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "cannot modify preserved file"})
	case errors.Is(err, apps.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filename"})
	case errors.Is(err, apps.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "app not found"})
	default:
		s.logs.LogError("App file %q: %v", name, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "app file operation failed"})
	}
}

// handleListApps lists the app files with their preserved flag
func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	list, err := s.apps.List()
	if err != nil {
		s.writeAppError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handlePutApp creates or replaces an app file from {"name", "code"}
func (s *Server) handlePutApp(w http.ResponseWriter, r *http.Request) {
	var up appUpload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&up); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if err := s.apps.Put(up.Name, []byte(up.Code)); err != nil {
		s.writeAppError(w, up.Name, err)
		return
	}
	s.logs.LogInfo("App file %s saved", up.Name)
	writeJSON(w, http.StatusCreated, apps.App{Name: up.Name})
}

// handleGetApp returns an app file as plain text
func (s *Server) handleGetApp(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	code, err := s.apps.Get(name)
	if err != nil {
		s.writeAppError(w, name, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(code)
}

// handleDeleteApp removes an app file
func (s *Server) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.apps.Delete(name); err != nil {
		s.writeAppError(w, name, err)
		return
	}
	s.logs.LogInfo("App file %s deleted", name)
	w.WriteHeader(http.StatusNoContent)
}
