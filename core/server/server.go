package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nholloway/viewmill/core/cache"
	"github.com/nholloway/viewmill/core/compiler"
	"github.com/nholloway/viewmill/core/config"
	"github.com/nholloway/viewmill/core/logger"
)

// Server renders views over HTTP through the compiler cache. Every request
// is a concurrent GetOrAdd; the cache guarantees each view compiles once
// and stays served from memory until its file or an ancestor import file
// changes.
type Server struct {
	Config   *config.Config
	Cache    *cache.CompilerCache
	Compiler *compiler.ViewCompiler
}

func NewServer(cfg *config.Config, cc *cache.CompilerCache, vc *compiler.ViewCompiler) *Server {
	return &Server{
		Config:   cfg,
		Cache:    cc,
		Compiler: vc,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	logger.Info("Starting server on %s (views: %s)", addr, s.Config.Views.Root)
	return http.ListenAndServe(addr, s)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	view := s.viewPath(r.URL.Path)

	result, err := s.Cache.GetOrAdd(view, s.Compiler.Compile)
	if err != nil {
		logger.Error("Failed to compile %s: %v", view, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if result == cache.NotFound {
		http.NotFound(w, r)
		return
	}

	data := map[string]any{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			data[name] = values[0]
		}
	}

	if err := compiler.Render(w, result.Artifact, data); err != nil {
		logger.Error("Failed to render %s: %v", view, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// viewPath maps a request path to a view file: "/" serves index.tmpl and
// extensionless paths get the template suffix appended.
func (s *Server) viewPath(urlPath string) string {
	view := strings.TrimPrefix(urlPath, "/")
	if view == "" {
		view = "index"
	}
	if !strings.HasSuffix(view, ".tmpl") {
		view += ".tmpl"
	}
	return view
}
