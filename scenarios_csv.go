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
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// LoadScenariosCSV reads scenarios from a spreadsheet export. The first
// record is the header; column order is free. Rows missing Source_Table or
// Derivation_Logic are skipped, not errors, so a half-filled mapping sheet
// still yields a runnable batch.
func LoadScenariosCSV(r io.Reader) ([]*Scenario, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var scenarios []*Scenario
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read scenarios row %d: %w", row, err)
		}
		row++

		scenario := &Scenario{
			Name:                  field(record, "scenario_name"),
			SourceTable:           field(record, "source_table"),
			TargetTable:           field(record, "target_table"),
			SourceJoinKey:         field(record, "source_join_key"),
			TargetJoinKey:         field(record, "target_join_key"),
			TargetColumn:          field(record, "target_column"),
			DerivationLogic:       field(record, "derivation_logic"),
			ReferenceTable:        field(record, "reference_table"),
			ReferenceJoinKey:      field(record, "reference_join_key"),
			ReferenceLookupColumn: field(record, "reference_lookup_column"),
			ReferenceReturnColumn: field(record, "reference_return_column"),
			BusinessConditions:    field(record, "business_conditions"),
			HardcodedValues:       field(record, "hardcoded_values"),
		}

		if scenario.SourceTable == "" || scenario.DerivationLogic == "" {
			continue
		}
		if scenario.Name == "" {
			scenario.Name = fmt.Sprintf("Scenario_%d", row-1)
		}

		scenarios = append(scenarios, scenario)
	}

	return scenarios, nil
}
