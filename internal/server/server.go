// Package server assembles the identity service HTTP handler.
package server

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/authflow/internal/auth"
	"github.com/mmynk/authflow/internal/middleware"
	"github.com/mmynk/authflow/internal/service"
	"github.com/mmynk/authflow/internal/storage"
	"github.com/mmynk/authflow/pkg/api/apiconnect"
)

// Deps are the collaborators of the identity service.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWTManager    *auth.JWTManager
	Logger        *slog.Logger
	// Registry receives the RPC and process metrics. A new registry is
	// created when nil.
	Registry *prometheus.Registry
}

// NewHandler returns the root handler serving the Connect service, metrics
// and health check over HTTP/1.1 and cleartext HTTP/2.
func NewHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
	}
	metrics := middleware.NewMetrics(reg)

	svc := service.NewIdentityService(deps.Authenticator, deps.JWTManager, deps.Store, logger)
	path, handler := apiconnect.NewIdentityServiceHandler(svc,
		connect.WithInterceptors(
			middleware.LoggingInterceptor(logger),
			metrics.Interceptor(),
			middleware.RequireAuth(deps.JWTManager, deps.Store, apiconnect.AuthenticatedProcedures...),
		),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wrap with h2c for HTTP/2 without TLS
	return h2c.NewHandler(middleware.LogRequests(logger, middleware.CORS(mux)), &http2.Server{})
}
