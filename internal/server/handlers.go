package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/sandbox"
	"github.com/conneroisu/codeplay/internal/security"
	"github.com/conneroisu/codeplay/internal/snippet"
)

// maxBodySize bounds request bodies on the JSON endpoints.
const maxBodySize = 1 << 20

// SnippetResponse describes the editor contents.
type SnippetResponse struct {
	Source    string `json:"source"`
	Language  string `json:"language"`
	Extension string `json:"extension"`
	Filename  string `json:"filename"`
}

func snippetResponse(sn snippet.Snippet) SnippetResponse {
	return SnippetResponse{
		Source:    sn.Source,
		Language:  sn.Language.String(),
		Extension: sn.Language.Extension(),
		Filename:  sn.Filename(),
	}
}

// RenderRequest asks for a document built from source. Execute also runs
// its scripts headlessly.
type RenderRequest struct {
	Source   string `json:"source"`
	Language string `json:"language"`
	Execute  bool   `json:"execute"`
}

// RenderResponse is the built document and, when requested, what its
// scripts did.
type RenderResponse struct {
	Document string          `json:"document"`
	Empty    bool            `json:"empty"`
	Result   *sandbox.Result `json:"result,omitempty"`
}

// ThemeRequest sets the theme. An empty theme toggles it.
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// HealthResponse reports liveness and a few gauges.
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Uptime     string    `json:"uptime"`
	Clients    int       `json:"clients"`
	Unreleased int       `json:"unreleased_handles"`
	Resources  int       `json:"resources"`
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		Timestamp:  now,
		Uptime:     now.Sub(s.started).Round(time.Second).String(),
		Clients:    s.hub.ConnectedClients(),
		Unreleased: s.host.Unreleased(),
		Resources:  s.sandbox.Len(),
	})
}

// HandleWebSocket upgrades to the page channel.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeHTTP(w, r)
}

// HandleIndex serves the playground page.
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := PageData{
		Snippet:   s.session.Snapshot(),
		Languages: snippet.Languages,
		Templates: s.session.Templates(),
		Theme:     s.prefs.Theme(ctx),
		Logs:      s.view.Entries(),
		Nonce:     security.GetNonceFromContext(ctx),
		Sandbox:   sandbox.IframeSandbox,
	}
	if h, ok := s.host.Current(); ok {
		data.PreviewURL = h.URL
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := Page(data).Render(ctx, w); err != nil {
		s.logger.Error(ctx, err, "Failed to render playground page")
	}
}

// HandleSandbox serves a published preview document.
func (s *Server) HandleSandbox(w http.ResponseWriter, r *http.Request) {
	sandbox.Handler(s.sandbox).ServeHTTP(w, r)
}

// HandleSnippet returns the editor contents.
func (s *Server) HandleSnippet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snippetResponse(s.session.Snapshot()))
}

// HandleRender builds a document from the request without touching the
// session.
func (s *Server) HandleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	doc := s.renderer.Render(req.Source, snippet.ParseLanguage(req.Language))

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = io.WriteString(w, string(doc))
		return
	}

	resp := RenderResponse{Document: string(doc), Empty: doc.Empty()}
	if req.Execute && !doc.Empty() {
		result, err := s.executor.Run(r.Context(), doc)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Result = result
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSave persists the editor contents.
func (s *Server) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Save(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// HandleTemplates lists the templates.
func (s *Server) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Templates())
}

// HandleLoadTemplate replaces the editor contents with a template.
func (s *Server) HandleLoadTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.session.LoadTemplate(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snippetResponse(s.session.Snapshot()))
}

// HandleDownload offers the editor contents as a file.
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	d := s.session.Download()
	h := w.Header()
	h.Set("Content-Type", d.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	h.Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(d.Content)
}

// HandleLogs returns the console view, as JSON or as display lines with
// ?format=text.
func (s *Server) HandleLogs(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, strings.Join(s.view.Lines(), "\n"))
		return
	}
	writeJSON(w, http.StatusOK, s.view.Entries())
}

// HandleTheme reads the theme on GET and sets or toggles it on POST.
func (s *Server) HandleTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusOK, ThemeRequest{Theme: string(s.prefs.Theme(ctx))})
		return
	}

	var req ThemeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	var err error
	theme := snippet.Theme(req.Theme)
	switch theme {
	case "":
		theme, err = s.prefs.ToggleTheme(ctx)
	case snippet.ThemeLight, snippet.ThemeDark:
		err = s.prefs.SetTheme(ctx, theme)
	default:
		err = errors.NewValidationError("THEME", "unknown theme "+req.Theme)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ThemeRequest{Theme: string(theme)})
}

// HandleCSPReport records policy violations reported by the page.
func (s *Server) HandleCSPReport(w http.ResponseWriter, r *http.Request) {
	security.CSPViolationHandler(s.logger).ServeHTTP(w, r)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewValidationError("BAD_REQUEST", "invalid JSON body: "+err.Error())
	}
	return nil
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: err.Error()}

	var pe *errors.PlaygroundError
	if errors.As(err, &pe) {
		resp.Code = pe.Code
		switch pe.Type {
		case errors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case errors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case errors.ErrorTypeSandbox:
			status = http.StatusUnprocessableEntity
		case errors.ErrorTypeStorage:
			status = http.StatusServiceUnavailable
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", "path", r.URL.Path)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
