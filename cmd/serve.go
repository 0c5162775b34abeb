package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cached pipeline state over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(db),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the read-only API over the local cache.
func newRouter(db store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/decks", func(w http.ResponseWriter, req *http.Request) {
		snaps, err := db.ListPipelines(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, snaps)
	})

	r.Get("/decks/{deckID}/pipeline", func(w http.ResponseWriter, req *http.Request) {
		snap, err := db.GetPipeline(req.Context(), chi.URLParam(req, "deckID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if snap == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown deck"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/decks/{deckID}/artifacts/{kind}", func(w http.ResponseWriter, req *http.Request) {
		kind := model.ArtifactKind(chi.URLParam(req, "kind"))
		if !kind.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown artifact kind"})
			return
		}
		rec, err := db.GetArtifact(req.Context(), chi.URLParam(req, "deckID"), kind)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if rec == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "artifact not cached"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
