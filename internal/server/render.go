package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/questions"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Question *questions.Question
	Language string
	Code     string

	HasSample    bool
	SampleOutput string
	Report       *api.GradeReport
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.internalError(w, "failed to render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
