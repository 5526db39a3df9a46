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

import "fmt"

// ConfigurationError marks a scenario that cannot be executed as declared.
// It is detected before any remote call; the scenario is recorded as ERROR
// and the batch continues.
type ConfigurationError struct {
	Scenario string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scenario %q misconfigured: %s", e.Scenario, e.Reason)
}

// Scenario is one declared source->target validation unit. Scenarios are
// parsed once from a declarative source (YAML rule file or spreadsheet
// export), immutable thereafter, and consumed exactly once by the runner.
type Scenario struct {
	Name            string `yaml:"name" json:"name"`
	SourceTable     string `yaml:"source_table" json:"source_table"`
	TargetTable     string `yaml:"target_table,omitempty" json:"target_table,omitempty"`
	SourceJoinKey   string `yaml:"source_join_key,omitempty" json:"source_join_key,omitempty"`
	TargetJoinKey   string `yaml:"target_join_key,omitempty" json:"target_join_key,omitempty"`
	TargetColumn    string `yaml:"target_column,omitempty" json:"target_column,omitempty"`
	DerivationLogic string `yaml:"derivation_logic" json:"derivation_logic"`

	// Reference-lookup scenarios
	ReferenceTable        string `yaml:"reference_table,omitempty" json:"reference_table,omitempty"`
	ReferenceJoinKey      string `yaml:"reference_join_key,omitempty" json:"reference_join_key,omitempty"`
	ReferenceLookupColumn string `yaml:"reference_lookup_column,omitempty" json:"reference_lookup_column,omitempty"`
	ReferenceReturnColumn string `yaml:"reference_return_column,omitempty" json:"reference_return_column,omitempty"`
	BusinessConditions    string `yaml:"business_conditions,omitempty" json:"business_conditions,omitempty"`
	HardcodedValues       string `yaml:"hardcoded_values,omitempty" json:"hardcoded_values,omitempty"`
}

// Validate checks the scenario's declaration-level invariants. A nil return
// does not guarantee the referenced tables exist; that surfaces later as an
// execution error.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return &ConfigurationError{Scenario: s.Name, Reason: "missing scenario name"}
	}
	if s.SourceTable == "" {
		return &ConfigurationError{Scenario: s.Name, Reason: "missing source table"}
	}
	if s.DerivationLogic == "" {
		return &ConfigurationError{Scenario: s.Name, Reason: "missing derivation logic"}
	}

	if s.TargetTable != "" {
		sourceKeys := ParseJoinKeys(s.SourceJoinKey)
		targetKeys := ParseJoinKeys(s.TargetJoinKey)
		if len(sourceKeys) == 0 {
			return &ConfigurationError{Scenario: s.Name, Reason: "target table declared but source join key is empty"}
		}
		if len(sourceKeys) != len(targetKeys) {
			return &ConfigurationError{Scenario: s.Name,
				Reason: fmt.Sprintf("join key count mismatch: source has %d key(s), target has %d key(s)",
					len(sourceKeys), len(targetKeys))}
		}
		if s.TargetColumn == "" {
			return &ConfigurationError{Scenario: s.Name, Reason: "target table declared but target column is empty"}
		}
	}

	return nil
}

// QualityOnly reports whether the scenario is a quality-only self-check
// (no target table declared).
func (s *Scenario) QualityOnly() bool {
	return s.TargetTable == ""
}
