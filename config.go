// Copyright 2025 The ReconCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcore

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DataSourceType string

const (
	DataSourceTypeBigquery   DataSourceType = "bigquery"
	DataSourceTypeClickhouse DataSourceType = "clickhouse"
	DataSourceTypePostgresql DataSourceType = "postgresql"
	DataSourceTypeMysql      DataSourceType = "mysql"
	DataSourceTypeSqlite     DataSourceType = "sqlite"
)

// ConnectionConfig carries per-engine connection settings. Only the fields
// relevant to the data source type need to be set.
type ConnectionConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// BigQuery
	Project string `yaml:"project,omitempty"`
	Dataset string `yaml:"dataset,omitempty"`

	// SQLite
	Path string `yaml:"path,omitempty"`
}

type DataSource struct {
	ID            string           `yaml:"id"`
	Type          DataSourceType   `yaml:"type"`
	Configuration ConnectionConfig `yaml:"configuration"`
}

// FileConfig is the top-level runner configuration file.
type FileConfig struct {
	Version         string        `yaml:"version"`
	DataSources     []*DataSource `yaml:"data_sources"`
	ScenarioTimeout time.Duration `yaml:"-"`
	MaxConcurrency  int           `yaml:"max_concurrency,omitempty"`
}

// UnmarshalYAML decodes the config, parsing scenario_timeout from a Go
// duration string ("90s", "2m").
func (c *FileConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawFileConfig struct {
		Version         string        `yaml:"version"`
		DataSources     []*DataSource `yaml:"data_sources"`
		ScenarioTimeout string        `yaml:"scenario_timeout,omitempty"`
		MaxConcurrency  int           `yaml:"max_concurrency,omitempty"`
	}

	var raw rawFileConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Version = raw.Version
	c.DataSources = raw.DataSources
	c.MaxConcurrency = raw.MaxConcurrency

	if raw.ScenarioTimeout != "" {
		timeout, err := time.ParseDuration(raw.ScenarioTimeout)
		if err != nil {
			return fmt.Errorf("invalid scenario_timeout %q: %w", raw.ScenarioTimeout, err)
		}
		c.ScenarioTimeout = timeout
	}

	return nil
}

func LoadFileConfig(fileName string) (*FileConfig, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg FileConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", fileName, err)
	}

	return &cfg, nil
}

// DataSourceByID returns the configured data source with the given id, or
// the first one when id is empty.
func (c *FileConfig) DataSourceByID(id string) (*DataSource, error) {
	if id == "" {
		if len(c.DataSources) == 0 {
			return nil, fmt.Errorf("no data sources configured")
		}
		return c.DataSources[0], nil
	}

	for _, ds := range c.DataSources {
		if ds.ID == id {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("data source %q not found in config", id)
}
