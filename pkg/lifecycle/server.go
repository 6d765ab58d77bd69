/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/warehouse/pkg/logger"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Service is a long running component driven by Run.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServerOptions configures Run.
type ServerOptions struct {
	ServiceName string
	// Service is optional; a process may only serve HTTP.
	Service Service
	// ListenAddr enables an HTTP server for Handler when both are set.
	ListenAddr      string
	Handler         http.Handler
	ShutdownTimeout time.Duration
	Logger          logger.Logger
}

// RunServer starts the service and the optional HTTP server, then blocks until
// ctx is cancelled, SIGINT/SIGTERM arrives, or a component fails.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	errCh := make(chan error, 2)

	if opts.Service != nil {
		go func() {
			if err := opts.Service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s service: %w", opts.ServiceName, err)
			}
		}()
	}

	var srv *http.Server

	if opts.ListenAddr != "" && opts.Handler != nil {
		srv = &http.Server{
			Addr:              opts.ListenAddr,
			Handler:           opts.Handler,
			ReadHeaderTimeout: readHeaderTimeout,
		}

		go func() {
			log.Info().Str("address", opts.ListenAddr).Str("service", opts.ServiceName).Msg("HTTP server listening")

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s http server: %w", opts.ServiceName, err)
			}
		}()
	}

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Str("service", opts.ServiceName).Msg("Shutdown requested")
	case runErr = <-errCh:
		log.Error().Err(runErr).Str("service", opts.ServiceName).Msg("Component failed, shutting down")
	}

	timeout := opts.ShutdownTimeout
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down HTTP server")
		}
	}

	if opts.Service != nil {
		if err := opts.Service.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping service")
		}
	}

	return runErr
}
