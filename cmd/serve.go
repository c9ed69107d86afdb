package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run catalog and its rasters over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(st, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter exposes the catalog read-only:
//
//	GET /health
//	GET /runs?kind=&status=&name=&limit=&offset=
//	GET /runs/{id}
//	GET /runs/{id}/raster
func newRouter(st store.Store, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			filter, err := runFilterFromQuery(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			runs, err := st.ListRuns(r.Context(), filter)
			if err != nil {
				zap.L().Error("list runs failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "list runs failed")
				return
			}
			views, err := newRunViews(runs)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "encode runs failed")
				return
			}
			writeJSON(w, http.StatusOK, views)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			run, ok := lookupRun(w, r, st)
			if !ok {
				return
			}
			view, err := newRunView(*run)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "encode run failed")
				return
			}
			writeJSON(w, http.StatusOK, view)
		})

		r.Get("/{id}/raster", func(w http.ResponseWriter, r *http.Request) {
			run, ok := lookupRun(w, r, st)
			if !ok {
				return
			}
			if run.Status != store.RunStatusComplete || run.Output == "" {
				writeError(w, http.StatusConflict, "run has no raster")
				return
			}
			http.ServeFile(w, r, run.Output)
		})
	})

	return r
}

func lookupRun(w http.ResponseWriter, r *http.Request, st store.Store) (*store.Run, bool) {
	run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get run failed")
		return nil, false
	}
	return run, true
}

func runFilterFromQuery(r *http.Request) (store.RunFilter, error) {
	q := r.URL.Query()
	f := store.RunFilter{
		Kind:   store.RunKind(q.Get("kind")),
		Status: store.RunStatus(q.Get("status")),
		Name:   q.Get("name"),
	}
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return store.RunFilter{}, eris.Errorf("invalid %s %q", key, raw)
		}
		*dst = n
	}
	return f, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
