package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinsgre/paddlepartner-waterways/internal/search"
	"github.com/akinsgre/paddlepartner-waterways/internal/waterbody"
)

var servePort int
var serveOffline bool

// searchRunner is the slice of the Searcher the HTTP handlers need.
type searchRunner interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the water-body search over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		searcher, closeFn, err := newSearcher(ctx, serveOffline)
		if err != nil {
			return err
		}
		defer closeFn()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(searcher),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(searcher searchRunner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/search", func(w http.ResponseWriter, r *http.Request) {
		q, err := queryFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		result, err := searcher.Search(r.Context(), q)
		if err != nil {
			zap.L().Error("search failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "search failed"})
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	return r
}

// queryFromRequest parses lat/lng/radius/name/include_external query params.
func queryFromRequest(r *http.Request) (search.Query, error) {
	params := r.URL.Query()
	q := search.Query{
		Name:            params.Get("name"),
		IncludeExternal: true,
	}

	latStr, lngStr := params.Get("lat"), params.Get("lng")
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return q, eris.New("invalid lat")
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return q, eris.New("invalid lng")
		}
		q.Origin = &waterbody.LatLng{Lat: lat, Lng: lng}
	}

	if q.Origin == nil && q.Name == "" {
		return q, eris.New("lat/lng or name is required")
	}

	if radiusStr := params.Get("radius"); radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			return q, eris.New("invalid radius")
		}
		q.RadiusMeters = radius
	}

	if extStr := params.Get("include_external"); extStr != "" {
		include, err := strconv.ParseBool(extStr)
		if err != nil {
			return q, eris.New("invalid include_external")
		}
		q.IncludeExternal = include
	}

	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "serve searches from the local store")
	rootCmd.AddCommand(serveCmd)
}
