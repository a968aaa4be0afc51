// Package debug exposes an optional HTTP endpoint for inspecting a live
// mount: a liveness probe and a dump of the attribute cache.
package debug

import (
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	sloghttp "github.com/samber/slog-http"

	"github.com/zenkj/ossfs/attr"
)

func NewHandler(attrs attr.Store, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /debug/cache", func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := attrs.Snapshot(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "could not snapshot attribute cache", slog.Any("error", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(spew.Sdump(snapshot)))
	})

	slogMiddleware := sloghttp.New(logger)

	return slogMiddleware(mux)
}
