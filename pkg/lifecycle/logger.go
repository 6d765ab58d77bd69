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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/version"
	"github.com/rs/zerolog"
)

// LoggerImpl implements the logger.Logger interface without using global state
type LoggerImpl struct {
	logger.Logger
	otel *logger.OTelWriter
}

// NewLoggerImpl creates a new logger implementation
func NewLoggerImpl(ctx context.Context, config *logger.Config) (*LoggerImpl, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	var output io.Writer = os.Stdout
	if config.Output == "stderr" {
		output = os.Stderr
	}

	level, err := logger.ParseLevel(config)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	impl := &LoggerImpl{}

	if !config.Disabled && config.OTel.Enabled && config.OTel.Endpoint != "" {
		otelWriter, err := logger.NewOTelWriter(ctx, config.OTel, version.GetVersion())
		if err != nil {
			return nil, err
		}

		impl.otel = otelWriter
		output = logger.NewMultiWriter(output, otelWriter)
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	impl.Logger = logger.New(zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger())

	return impl, nil
}

// Shutdown flushes the OTLP exporter when one is attached.
func (l *LoggerImpl) Shutdown(ctx context.Context) error {
	return l.otel.Shutdown(ctx)
}

// CreateComponentLogger creates a logger for a specific component.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (*LoggerImpl, error) {
	impl, err := NewLoggerImpl(ctx, config)
	if err != nil {
		return nil, err
	}

	impl.Logger = logger.New(impl.WithComponent(component))

	return impl, nil
}
