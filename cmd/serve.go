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

	"github.com/sells-group/seasonscope/internal/region"
	"github.com/sells-group/seasonscope/internal/resolve"
	"github.com/sells-group/seasonscope/internal/search"
	"github.com/sells-group/seasonscope/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		rankCfg, err := rankConfig(cfg)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, rankCfg, cfg.Server.AllowedOrigins),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter assembles the read API. Cards are resolved fresh per request;
// only the store's read path is cached.
func newRouter(st store.Store, rankCfg resolve.RankConfig, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/foods", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query().Get("q")
		foods, err := st.ListFoods(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if q == "" {
			writeJSON(w, http.StatusOK, foods)
			return
		}
		writeJSON(w, http.StatusOK, search.NewIndex(foods).Search(q, 10))
	})

	r.Get("/v1/foods/{id}/card", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		food, err := st.GetFood(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if food == nil {
			writeError(w, http.StatusNotFound, eris.Errorf("unknown food %q", id))
			return
		}

		q, err := queryFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		ds, err := loadDataset(req.Context(), st, *food)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, resolve.BuildCard(q, ds))
	})

	r.Get("/v1/recommendations", func(w http.ResponseWriter, req *http.Request) {
		q, err := queryFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		cards, err := buildAllCards(req.Context(), st, q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		recs := resolve.BuildRecommendations(cards, q.Region.Code(), q.Month, rankCfg)
		writeJSON(w, http.StatusOK, recs)
	})

	return r
}

// queryFromRequest parses region, month, system, and optional coordinates.
// Month defaults to the current month; region defaults to GLOBAL.
func queryFromRequest(req *http.Request) (resolve.Query, error) {
	vals := req.URL.Query()

	q := resolve.Query{
		Region:     region.Global(),
		Month:      int(time.Now().Month()),
		SystemCode: vals.Get("system"),
	}

	if code := vals.Get("region"); code != "" {
		q.Region = region.Parse(code)
	}
	if m := vals.Get("month"); m != "" {
		month, err := strconv.Atoi(m)
		if err != nil || month < 1 || month > 12 {
			return q, eris.Errorf("invalid month %q", m)
		}
		q.Month = month
	}

	lat, lon := vals.Get("lat"), vals.Get("lon")
	if lat != "" && lon != "" {
		latF, latErr := strconv.ParseFloat(lat, 64)
		lonF, lonErr := strconv.ParseFloat(lon, 64)
		if latErr != nil || lonErr != nil {
			return q, eris.New("invalid coordinates")
		}
		q.Coords = &resolve.Coords{Lat: latF, Lon: lonF}
	}

	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
