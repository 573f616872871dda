package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	commands "github.com/inference-gateway/operator/internal/commands"
	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

//go:embed static/*
var staticFiles embed.FS

//go:embed templates/*
var templateFiles embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

func staticHandler() (http.Handler, error) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to create static filesystem: %w", err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))), nil
}

type pageData struct {
	Title    string
	Version  string
	Commands []domain.CommandInfo
}

func (d *Dispatcher) render(w http.ResponseWriter, name string) {
	data := pageData{
		Title:    "Operator",
		Version:  d.opts.Version.String(),
		Commands: d.opts.Registry.Commands(),
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("Failed to execute template", "template", name, "error", err)
		commands.Text(http.StatusInternalServerError, "Template error").Write(w)
		return
	}
	commands.Response{Status: http.StatusOK, ContentType: "text/html; charset=utf-8", Body: buf.Bytes()}.Write(w)
}

func (d *Dispatcher) handleIndex(w http.ResponseWriter, _ *http.Request) {
	d.render(w, "index.html")
}

func (d *Dispatcher) handleClient(w http.ResponseWriter, _ *http.Request) {
	d.render(w, "client.html")
}

func (d *Dispatcher) handleRedoc(w http.ResponseWriter, _ *http.Request) {
	d.render(w, "redoc.html")
}
