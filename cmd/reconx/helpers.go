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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DataBridgeTech/reconcore"
)

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadScenarios reads a scenarios file, dispatching on extension: .csv for
// spreadsheet exports, anything else is treated as YAML.
func loadScenarios(path string) ([]*reconcore.Scenario, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return reconcore.LoadScenariosCSV(file)
	}

	cfg, err := reconcore.LoadScenariosFileConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Scenarios, nil
}

func resolveDataSource(opts *rootOptions) (*reconcore.FileConfig, *reconcore.DataSource, error) {
	cfg, err := reconcore.LoadFileConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config %s: %w", opts.ConfigPath, err)
	}

	dataSource, err := cfg.DataSourceByID(opts.DataSourceID)
	if err != nil {
		return nil, nil, err
	}

	return cfg, dataSource, nil
}
