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

	"github.com/carverauto/warehouse/pkg/api"
	"github.com/carverauto/warehouse/pkg/archive"
	"github.com/carverauto/warehouse/pkg/config"
	"github.com/carverauto/warehouse/pkg/lifecycle"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/metrics"
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
	configPath := flag.String("config", "/etc/warehouse/api.json", "Path to query service config file")
	flag.Parse()

	ctx := context.Background()

	var cfg api.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	apiLogger, err := lifecycle.CreateComponentLogger(ctx, "api", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := apiLogger.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to flush logs: %v", err)
		}
	}()

	apiLogger.Debug().Interface("config", config.Redact(&cfg)).Msg("Loaded configuration")

	keyer, err := archive.NewDayKeyer(cfg.Timezone)
	if err != nil {
		return err
	}

	store, err := archive.NewStore(cfg.DataDir, keyer, apiLogger, archive.WithRetention(cfg.RetentionDays))
	if err != nil {
		return err
	}

	collector := metrics.NewCollector("")

	server := api.NewAPIServer(cfg.CORS, store, apiLogger,
		api.WithRecentDays(cfg.RecentDays),
		api.WithRequestRecorder(collector),
		api.WithMetricsHandler(collector.Handler()),
	)

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: "warehouse-api",
		ListenAddr:  cfg.ListenAddr,
		Handler:     server.Handler(),
		Logger:      apiLogger,
	})
}
