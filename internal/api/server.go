package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jetsetgo/sidekick-setup/internal/apps"
	"github.com/jetsetgo/sidekick-setup/internal/config"
	"github.com/jetsetgo/sidekick-setup/internal/display"
	"github.com/jetsetgo/sidekick-setup/internal/form"
	"github.com/jetsetgo/sidekick-setup/internal/settings"
)

// maxBodySize caps request bodies read by the form and app handlers
const maxBodySize = 1 << 20

//go:embed web/index.html web/script.js
var webFS embed.FS

var pageTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// Server represents the setup HTTP server
type Server struct {
	config  *config.Config
	store   settings.Store
	display display.Display
	logs    *LogBuffer
	saves   *SaveHistory
	events  *Hub
	apps    *apps.Store
	mux     *http.ServeMux
	http    *http.Server

	// serializes the load-modify-save in persist
	saveMu sync.Mutex

	// displayDone, when set, runs after each completion message
	displayDone func(error)
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, store settings.Store, disp display.Display, logBuf *LogBuffer) *Server {
	if disp == nil {
		disp = display.Nop{}
	}
	if logBuf == nil {
		logBuf = NewLogBuffer(cfg.Logging.BufferSize)
	}
	s := &Server{
		config:  cfg,
		store:   store,
		display: disp,
		logs:    logBuf,
		saves:   NewSaveHistory(cfg.Server.SaveHistory),
		events:  NewHub(cfg.Server.WSPingInterval),
		apps:    apps.NewStore(cfg.Apps.Dir, cfg.Apps.Preserved),
		mux:     http.NewServeMux(),
	}

	s.setupRoutes()
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Settings form
	s.mux.HandleFunc("POST /save", s.handleSave)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)

	// Diagnostics
	s.mux.HandleFunc("GET /api/saves", s.handleSaves)
	s.mux.HandleFunc("GET /api/logs", s.handleLogs)
	s.mux.Handle("GET /api/events", s.events)

	// Custom app files
	s.mux.HandleFunc("GET /api/apps", s.handleListApps)
	s.mux.HandleFunc("POST /api/apps", s.handlePutApp)
	s.mux.HandleFunc("GET /api/app/{name}", s.handleGetApp)
	s.mux.HandleFunc("DELETE /api/app/{name}", s.handleDeleteApp)

	// Web UI
	s.mux.HandleFunc("GET /script.js", s.handleScript)
	s.mux.HandleFunc("GET /{$}", s.handleUI)
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Events returns the event hub
func (s *Server) Events() *Hub {
	return s.events
}

// Saves returns the save history
func (s *Server) Saves() *SaveHistory {
	return s.saves
}

// Start starts the HTTP server and blocks until it stops. It returns nil
// at once if Shutdown has already been called.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and disconnects event subscribers
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.Close()
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) formDefaults() form.Form {
	return form.Form{
		UserName:     s.config.Defaults.UserName,
		SidekickName: s.config.Defaults.SidekickName,
	}
}

// handleSave stores the two names posted by the settings page
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != form.ContentType {
		s.logs.LogWarn("Rejected save with content type %q", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusBadRequest, form.Reply{Status: form.StatusError, Error: "expected " + form.ContentType})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.logs.LogWarn("Rejected save with unreadable body: %v", err)
		writeJSON(w, http.StatusBadRequest, form.Reply{Status: form.StatusError, Error: "invalid form body"})
		return
	}
	f, err := form.Decode(string(body), s.formDefaults())
	if err != nil {
		s.logs.LogWarn("Rejected save with unreadable body: %v", err)
		writeJSON(w, http.StatusBadRequest, form.Reply{Status: form.StatusError, Error: "invalid form body"})
		return
	}

	rec := SaveRecord{
		UserName:     f.UserName,
		SidekickName: f.SidekickName,
		RemoteAddr:   r.RemoteAddr,
	}

	if err := s.persist(r.Context(), f); err != nil {
		rec.Status = SaveFailed
		rec.Error = err.Error()
		rec = s.saves.Add(rec)
		s.logs.LogError("Failed to save settings: %v", err)
		s.events.Broadcast(Event{Type: EventSaveFailed, ID: rec.ID, Error: rec.Error})
		writeJSON(w, http.StatusInternalServerError, form.Reply{Status: form.StatusError, Error: "could not save settings"})
		return
	}

	rec.Status = SaveSucceeded
	rec = s.saves.Add(rec)
	s.logs.LogInfo("Settings saved for %q with sidekick %q", f.UserName, f.SidekickName)
	s.events.Broadcast(Event{
		Type:         EventSettingsSaved,
		ID:           rec.ID,
		UserName:     f.UserName,
		SidekickName: f.SidekickName,
	})

	go s.showCompletion(f.SidekickName)

	writeJSON(w, http.StatusOK, form.Reply{Status: form.StatusSuccess})
}

func (s *Server) persist(ctx context.Context, f form.Form) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	current, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	current.UserName = f.UserName
	current.SidekickName = f.SidekickName
	current.SetupCompleted = true
	return s.store.Save(ctx, current)
}

func (s *Server) showCompletion(sidekickName string) {
	err := s.display.Show(display.CompletionLines(sidekickName))
	if err != nil {
		s.logs.LogWarn("Display %s failed: %v", s.display.Type(), err)
	}
	if s.displayDone != nil {
		s.displayDone(err)
	}
}

// handleStatus returns the stored setup state
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		s.logs.LogError("Failed to load settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load settings"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"setup_completed": st.SetupCompleted,
		"user_name":       st.UserName,
		"sidekick_name":   st.SidekickName,
	})
}

// handleReset restores the default settings
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context()); err != nil {
		s.logs.LogError("Failed to reset settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not reset settings"})
		return
	}

	s.logs.LogInfo("Settings reset to defaults")
	s.events.Broadcast(Event{Type: EventSettingsReset})
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleSaves returns recent saves, newest first
func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"saves": s.saves.Entries(),
	})
}

// handleLogs returns buffered log entries, filtered by ?level=warn,error
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var levels []string
	if lv := r.URL.Query().Get("level"); lv != "" {
		levels = strings.Split(lv, ",")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs": s.logs.Entries(levels),
	})
}

// handleScript serves the page controller script
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	data, err := webFS.ReadFile("web/script.js")
	if err != nil {
		http.Error(w, "script not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

type pageData struct {
	UserName            string
	SidekickName        string
	DefaultUserName     string
	DefaultSidekickName string
}

// handleUI serves the settings page pre-filled with the stored names
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		s.logs.LogWarn("Serving page with defaults, settings unavailable: %v", err)
		st = settings.Defaults(s.config.Defaults)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	err = pageTemplate.Execute(w, pageData{
		UserName:            st.UserName,
		SidekickName:        st.SidekickName,
		DefaultUserName:     s.config.Defaults.UserName,
		DefaultSidekickName: s.config.Defaults.SidekickName,
	})
	if err != nil {
		log.Printf("Failed to render page: %v", err)
	}
}
