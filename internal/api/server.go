package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
// Mutating routes require the admin key as a bearer token when adminAPIKey is set.
func NewServer(port string, svc Services, adminAPIKey string, maxUploadBytes int64) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(svc, adminAPIKey, maxUploadBytes),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter returns the API routes.
func NewRouter(svc Services, adminAPIKey string, maxUploadBytes int64) http.Handler {
	handler := NewHandler(svc, maxUploadBytes)

	admin := func(fn http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return fn
		}
		return requireAuth(adminAPIKey, fn)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/upload", admin(handler.Upload))

	mux.HandleFunc("GET /api/v1/holdings", handler.ListHoldings)
	mux.Handle("DELETE /api/v1/holdings", admin(handler.ClearHoldings))
	mux.HandleFunc("GET /api/v1/holdings/live", handler.LiveHoldings)

	mux.HandleFunc("GET /api/v1/breakdown", handler.GetBreakdown)
	mux.HandleFunc("GET /api/v1/rebalance", handler.GetRebalance)

	mux.HandleFunc("GET /api/v1/classifications", handler.ListClassifications)
	mux.Handle("PUT /api/v1/classifications/{ticker}", admin(handler.UpdateClassification))
	mux.Handle("POST /api/v1/classifications/{ticker}/reclassify", admin(handler.Reclassify))

	mux.HandleFunc("GET /api/v1/targets", handler.ListTargets)
	mux.Handle("PUT /api/v1/targets", admin(handler.ReplaceTargets))

	mux.HandleFunc("GET /api/v1/snapshots", handler.ListSnapshots)

	mux.HandleFunc("GET /api/v1/analysis/{date}", handler.GetAnalysis)
	mux.Handle("POST /api/v1/analysis", admin(handler.GenerateAnalysis))

	mux.HandleFunc("GET /api/v1/report.xlsx", handler.DownloadReport)

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
