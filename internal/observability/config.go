package observability

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	EnablePprofTrace bool
}

// Mount attaches the enabled debug endpoints to r. Profiling is served under
// /debug/pprof.
func (c Config) Mount(r chi.Router) {
	if c.EnablePprofTrace {
		r.Mount("/debug", middleware.Profiler())
	}
}
