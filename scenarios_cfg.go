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

	"gopkg.in/yaml.v3"
)

// ScenariosFileConfig is the YAML declaration file for a validation run.
type ScenariosFileConfig struct {
	Version   string      `yaml:"version"`
	Scenarios []*Scenario `yaml:"scenarios"`
}

// LoadScenariosFileConfig reads and decodes a scenarios YAML file. Scenarios
// missing a source table or derivation logic are dropped, matching the
// spreadsheet ingestion behavior; everything else is validated at run time.
func LoadScenariosFileConfig(fileName string) (*ScenariosFileConfig, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg ScenariosFileConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode scenarios file %s: %w", fileName, err)
	}

	kept := cfg.Scenarios[:0]
	for _, scenario := range cfg.Scenarios {
		if scenario.SourceTable == "" || scenario.DerivationLogic == "" {
			continue
		}
		kept = append(kept, scenario)
	}
	cfg.Scenarios = kept

	return &cfg, nil
}
