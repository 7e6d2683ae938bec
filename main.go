package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/declarative-oauth2/internal/config"
	"github.com/matheuscscp/declarative-oauth2/internal/flow"
	"github.com/matheuscscp/declarative-oauth2/internal/logging"
	"github.com/matheuscscp/declarative-oauth2/internal/provider/factory"
	"github.com/matheuscscp/declarative-oauth2/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := logging.LoadLevel(); err != nil {
		logrus.WithError(err).Warn("failed to load log level, using info")
	}

	conf, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	providers, err := factory.NewAll(conf, flow.New())
	if err != nil {
		logrus.WithError(err).Fatal("failed to create providers")
	}

	s := server.New(conf, providers)

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":      conf.Server.Addr,
			"providers": len(providers),
		}).Info("server started")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logrus.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shut down server")
		}
	case err, ok := <-errCh:
		if ok {
			logrus.WithError(err).Fatal("server failed")
		}
	}
}
