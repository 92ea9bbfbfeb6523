// Package ui serves a read-only web view over completed runs: the run index
// plus each run's rendered reports.
package ui

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"abfactory/internal"
	"abfactory/ports"
)

// recentRunsShown bounds the index page listing
const recentRunsShown = 100

// Server is the web server over the run index and run artifacts
type Server struct {
	router  *gin.Engine
	index   ports.RunIndex
	runsDir string
	log     *internal.Logger
}

func NewServer(index ports.RunIndex, runsDir string, log *internal.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:  gin.New(),
		index:   index,
		runsDir: runsDir,
		log:     log.Named("ui"),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/runs/:id", s.handleRunReport)
	s.router.GET("/runs/:id/timeline", s.handleRunTimeline)
	s.router.GET("/runs/:id/decision.json", s.handleRunDecision)
}

// Start blocks serving HTTP on the given port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Info("serving run browser on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>AB Factory Runs</title></head>
<body>
<h1>Runs</h1>
<table border="1" cellpadding="4">
<tr><th>Run</th><th>Case</th><th>Decision</th><th>Confidence</th><th>When</th></tr>
{{range .Runs}}
<tr>
<td><a href="/runs/{{.RunID}}">{{.RunID}}</a></td>
<td>{{.CaseID}}</td>
<td>{{.Decision}}</td>
<td>{{printf "%.4f" .Confidence}}</td>
<td>{{.Timestamp}}</td>
</tr>
{{end}}
</table>
</body>
</html>`))

func (s *Server) handleIndex(c *gin.Context) {
	runs, err := s.index.Recent(c.Request.Context(), recentRunsShown)
	if err != nil {
		s.log.Error("read run index: %v", err)
		c.String(http.StatusInternalServerError, "run index unavailable")
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := indexTmpl.Execute(c.Writer, gin.H{"Runs": runs}); err != nil {
		s.log.Error("render index: %v", err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRunReport(c *gin.Context) {
	s.serveMarkdown(c, "final_report.md")
}

func (s *Server) handleRunTimeline(c *gin.Context) {
	s.serveMarkdown(c, "timeline.md")
}

func (s *Server) handleRunDecision(c *gin.Context) {
	path, ok := s.runFile(c, "decision.json")
	if !ok {
		return
	}
	c.File(path)
}

func (s *Server) serveMarkdown(c *gin.Context, name string) {
	path, ok := s.runFile(c, name)
	if !ok {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		c.String(http.StatusNotFound, "%s not found for run", name)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", renderPage(c.Param("id"), raw))
}

// runFile resolves an artifact path inside one run directory, rejecting ids
// that would escape runsDir
func (s *Server) runFile(c *gin.Context, name string) (string, bool) {
	id := c.Param("id")
	if id == "" || id != filepath.Base(id) {
		c.String(http.StatusBadRequest, "invalid run id")
		return "", false
	}
	path := filepath.Join(s.runsDir, id, name)
	if _, err := os.Stat(path); err != nil {
		c.String(http.StatusNotFound, "run %s not found", id)
		return "", false
	}
	return path, true
}
