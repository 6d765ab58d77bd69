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

package poller

import (
	"fmt"
	"time"

	"github.com/carverauto/warehouse/pkg/config"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

const (
	defaultPollInterval    = 60 * time.Second
	defaultProbeTimeout    = 5 * time.Second
	defaultDomain          = "roblox.com"
	defaultMachineIDHeader = "roblox-machine-id"
)

// Config represents poller configuration.
type Config struct {
	DataDir         string          `json:"data_dir"`
	PollInterval    models.Duration `json:"poll_interval"`
	ProbeTimeout    models.Duration `json:"probe_timeout"`
	Domain          string          `json:"domain"`
	MachineIDHeader string          `json:"machine_id_header"`
	// Timezone names the zone whose midnight starts a new day bucket. Empty means UTC.
	Timezone      string                     `json:"timezone"`
	RetentionDays int                        `json:"retention_days"`
	Services      []models.ServiceDescriptor `json:"services"`
	// ServicesFile is a JSON array of services, resolved relative to the config file.
	ServicesFile string               `json:"services_file,omitempty"`
	MetricsAddr  string               `json:"metrics_addr,omitempty"`
	Logging      *logger.Config       `json:"logging,omitempty"`
	Events       *models.EventsConfig `json:"events,omitempty"`
}

// Validate implements config.Validator interface.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errDataDirRequired
	}

	if c.PollInterval == 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = models.Duration(defaultProbeTimeout)
	}

	if c.PollInterval < 0 {
		return errInvalidPollInterval
	}

	if c.ProbeTimeout < 0 {
		return errInvalidProbeTimeout
	}

	if c.ProbeTimeout >= c.PollInterval {
		return fmt.Errorf("%w: %s >= %s", errProbeTimeoutTooLong, c.ProbeTimeout, c.PollInterval)
	}

	if c.Domain == "" {
		c.Domain = defaultDomain
	}

	if c.MachineIDHeader == "" {
		c.MachineIDHeader = defaultMachineIDHeader
	}

	if c.RetentionDays < 0 {
		return errNegativeRetention
	}

	if c.Events != nil {
		if err := c.Events.Validate(); err != nil {
			return err
		}
	}

	if len(c.Services) == 0 && c.ServicesFile == "" {
		return errNoServices
	}

	return c.normalizeServices()
}

// LoadServices appends the services listed in ServicesFile, resolved against
// the directory of configPath, and validates the combined list.
func (c *Config) LoadServices(configPath string) error {
	if c.ServicesFile == "" {
		return c.normalizeServices()
	}

	path := config.ResolvePath(configPath, c.ServicesFile)

	var services []models.ServiceDescriptor
	if err := config.LoadFile(path, &services); err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	c.Services = append(c.Services, services...)
	c.ServicesFile = ""

	if len(c.Services) == 0 {
		return errNoServices
	}

	return c.normalizeServices()
}

func (c *Config) normalizeServices() error {
	seen := make(map[string]struct{}, len(c.Services))

	for i := range c.Services {
		svc := &c.Services[i]
		svc.ApplyDefaults()

		if err := svc.Validate(); err != nil {
			return err
		}

		if _, dup := seen[svc.ID]; dup {
			return fmt.Errorf("%w: %s", errDuplicateService, svc.ID)
		}

		seen[svc.ID] = struct{}{}
	}

	return nil
}
