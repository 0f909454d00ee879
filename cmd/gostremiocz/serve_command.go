package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/amaumene/gostremiocz/internal/constants"
	"github.com/amaumene/gostremiocz/internal/handlers"
	"github.com/amaumene/gostremiocz/internal/middleware"
	"github.com/amaumene/gostremiocz/pkg/ssl"
)

func newServeCommand(configPath *string) *cobra.Command {
	var port string
	var localTLS bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the addon HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if port != "" {
				a.cfg.Port = port
			}
			if localTLS {
				a.cfg.LocalTLS = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	cmd.Flags().BoolVar(&localTLS, "local-tls", false, "Serve HTTPS with a local-ip.sh certificate")
	return cmd
}

func (a *app) router() *gin.Engine {
	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(a.log))
	r.Use(middleware.CORS())
	r.Use(middleware.Gzip())

	handlers.New(a.container, a.cfg).RegisterRoutes(r)
	return r
}

// serve runs the HTTP server until ctx is done, then drains in-flight
// requests for up to constants.ShutdownTimeout.
func (a *app) serve(ctx context.Context) error {
	a.container.Cleanup.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: constants.RequestTimeout,
	}

	listen := srv.ListenAndServe
	if a.cfg.LocalTLS {
		cert := ssl.NewLocalIPCertificate(a.cfg.CertDir, a.log)
		if err := cert.Setup(ctx); err != nil {
			return err
		}
		tlsConfig, err := cert.TLSConfig()
		if err != nil {
			return err
		}
		srv.TLSConfig = tlsConfig
		listen = func() error { return srv.ListenAndServeTLS("", "") }
		a.log.Infof("[App] install from https://%s:%s/manifest.json", cert.Hostname(), a.cfg.Port)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("[App] starting HTTP server on port %s", a.cfg.Port)
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Infof("[App] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
