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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/carverauto/warehouse/pkg/archive"
	"github.com/carverauto/warehouse/pkg/checker"
	"github.com/carverauto/warehouse/pkg/config"
	"github.com/carverauto/warehouse/pkg/lifecycle"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/metrics"
	"github.com/carverauto/warehouse/pkg/natsutil"
	"github.com/carverauto/warehouse/pkg/poller"
)

var (
	errFailedToLoadConfig = errors.New("failed to load config")
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/warehouse/poller.json", "Path to poller config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg poller.Config

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	if err := cfg.LoadServices(*configPath); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	pollerLogger, err := lifecycle.CreateComponentLogger(ctx, "poller", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := pollerLogger.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to flush logs: %v", err)
		}
	}()

	keyer, err := archive.NewDayKeyer(cfg.Timezone)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector("")

	store, err := archive.NewStore(cfg.DataDir, keyer, pollerLogger,
		archive.WithRetention(cfg.RetentionDays),
		archive.WithObserver(collector),
	)
	if err != nil {
		return err
	}

	deps := poller.Dependencies{
		Archive: store,
		Keyer:   keyer,
		Prober:  checker.NewHTTPProber(time.Duration(cfg.ProbeTimeout)),
		Metrics: collector,
	}

	if cfg.Events != nil && cfg.Events.Enabled {
		publisher, nc, err := natsutil.ConnectWithEventPublisher(ctx, cfg.Events, pollerLogger)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
		defer nc.Close()

		deps.Events = publisher
	}

	p, err := poller.New(&cfg, deps, pollerLogger)
	if err != nil {
		return err
	}

	pollerLogger.Debug().Interface("config", config.Redact(&cfg)).Msg("Loaded configuration")

	pollerLogger.Info().
		Int("services", len(cfg.Services)).
		Str("data_dir", cfg.DataDir).
		Str("interval", cfg.PollInterval.String()).
		Msg("Starting warehouse poller")

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: "warehouse-poller",
		Service:     p,
		ListenAddr:  cfg.MetricsAddr,
		Handler:     collector.Handler(),
		Logger:      pollerLogger,
	})
}
