package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/lexbaux/analyzer"
	"github.com/hazyhaar/lexbaux/export"
	"github.com/hazyhaar/lexbaux/horosafe"
	"github.com/hazyhaar/lexbaux/idgen"
	"github.com/hazyhaar/lexbaux/lease"
	"github.com/hazyhaar/lexbaux/shield"
)

// User-facing error messages.
const (
	msgNoFile      = "Aucun fichier reçu"
	msgUnusable    = "Le PDF ne contient pas de texte exploitable. S’agit-il d’un scan sans OCR ?"
	msgTooLarge    = "Fichier trop volumineux"
	msgServer      = "Erreur serveur"
	msgBadReport   = "Rapport invalide"
	msgUnknownDemo = "Rapport de démonstration inconnu"
	msgBadFormat   = "Format d’export inconnu"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		f, err := staticFS.Open(name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", export.ContentTypeHTML)
		io.Copy(w, f)
	}
}

// handleAnalyze: POST /api/analyze, multipart field "file".
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	report, code, msg := s.analyzeUpload(r)
	if report == nil {
		writeJSON(w, code, map[string]string{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleReportUpload: POST /rapport, the form of the landing page.
func (s *Server) handleReportUpload(w http.ResponseWriter, r *http.Request) {
	report, code, msg := s.analyzeUpload(r)
	if report == nil {
		s.errorPage(w, code, msg)
		return
	}
	s.renderReport(w, r, report)
}

// handleReportDemo: GET /rapport?demo=name.
func (s *Server) handleReportDemo(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("demo")
	if name == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := horosafe.ValidateIdentifier(name); err != nil {
		s.errorPage(w, http.StatusNotFound, msgUnknownDemo)
		return
	}
	report, err := lease.Demo(name)
	if err != nil {
		s.errorPage(w, http.StatusNotFound, msgUnknownDemo)
		return
	}
	s.renderReport(w, r, report)
}

func (s *Server) handleDemoList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"demos": lease.DemoNames()})
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := horosafe.ValidateIdentifier(name); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgUnknownDemo})
		return
	}
	data, err := lease.DemoJSON(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgUnknownDemo})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleExport: POST /api/export/{xlsx|md}, body = report JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	ext := export.Extension(format)
	if ext == "" || ext == ".html" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgBadFormat})
		return
	}

	body, err := horosafe.LimitedReadAll(r.Body, horosafe.MaxReportBody)
	if err != nil {
		if errors.Is(err, horosafe.ErrTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": msgTooLarge})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgBadReport})
		return
	}
	report, err := lease.DecodeReport(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgBadReport + " : " + err.Error()})
		return
	}

	var (
		data        []byte
		contentType string
	)
	if ext == ".xlsx" {
		data, err = s.export.XLSX(report)
		contentType = export.ContentTypeXLSX
	} else {
		data, err = s.export.Markdown(report)
		contentType = export.ContentTypeMarkdown
	}
	if err != nil {
		shield.GetLogger(r.Context()).Error("export failed", "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgServer})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="lexbaux-`+idgen.ExportName()+ext+`"`)
	w.Write(data)
}

// analyzeUpload runs the analysis of the uploaded file. On failure the
// report is nil and code/msg describe the response.
func (s *Server) analyzeUpload(r *http.Request) (*lease.Report, int, string) {
	logger := shield.GetLogger(r.Context())

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, http.StatusRequestEntityTooLarge, msgTooLarge
		}
		return nil, http.StatusBadRequest, msgNoFile
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	data, err := readUpload(file, hdr, s.maxUpload)
	if err != nil {
		if errors.Is(err, horosafe.ErrTooLarge) {
			return nil, http.StatusRequestEntityTooLarge, msgTooLarge
		}
		logger.Error("analyze failed", "error", err)
		return nil, http.StatusInternalServerError, msgServer
	}

	report, err := s.analyzer.AnalyzeDocument(r.Context(), hdr.Filename, data)
	switch {
	case err == nil:
		return report, http.StatusOK, ""
	case errors.Is(err, analyzer.ErrNoFile):
		return nil, http.StatusBadRequest, msgNoFile
	case errors.Is(err, analyzer.ErrUnusableText):
		return nil, http.StatusBadRequest, msgUnusable
	default:
		logger.Error("analyze failed", "file", hdr.Filename, "error", err)
		msg := err.Error()
		if msg == "" {
			msg = msgServer
		}
		return nil, http.StatusInternalServerError, msg
	}
}

func readUpload(f multipart.File, hdr *multipart.FileHeader, limit int64) ([]byte, error) {
	if hdr.Size > limit {
		return nil, horosafe.ErrTooLarge
	}
	return horosafe.LimitedReadAll(f, limit)
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, report *lease.Report) {
	var buf bytes.Buffer
	if err := s.export.HTML(&buf, report); err != nil {
		shield.GetLogger(r.Context()).Error("render report", "error", err)
		s.errorPage(w, http.StatusInternalServerError, msgServer)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeHTML)
	buf.WriteTo(w)
}

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="fr"><head><meta charset="utf-8"><title>LexBaux · Erreur</title></head>
<body><h1>Analyse impossible</h1><p>{{.}}</p><p><a href="/">Retour à l’accueil</a></p></body></html>
`))

func (s *Server) errorPage(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", export.ContentTypeHTML)
	w.WriteHeader(code)
	errorTmpl.Execute(w, msg)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
