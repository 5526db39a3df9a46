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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// VerdictStatus is the per-scenario outcome. FAIL means the comparison ran
// and found discrepancies; ERROR means the scenario could not be evaluated.
// Conflating the two would remove exactly the diagnostic signal the tool
// exists to provide.
type VerdictStatus string

const (
	StatusPass  VerdictStatus = "PASS"
	StatusFail  VerdictStatus = "FAIL"
	StatusError VerdictStatus = "ERROR"
)

// Verdict is the immutable per-scenario validation outcome.
type Verdict struct {
	Scenario        string        `json:"scenario"`
	Status          VerdictStatus `json:"status"`
	RowCount        int64         `json:"row_count"`
	Percentage      float64       `json:"percentage"`
	Details         string        `json:"details,omitempty"`
	Resolution      Resolution    `json:"resolution,omitempty"`
	MismatchSamples []string      `json:"mismatch_samples,omitempty"`
	Query           string        `json:"query,omitempty"`
	Error           string        `json:"error,omitempty"`
	DurationMs      int64         `json:"duration_ms"`
}

// Report aggregates one run's verdicts.
type Report struct {
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Passed     int        `json:"passed"`
	Failed     int        `json:"failed"`
	Errored    int        `json:"errored"`
	Verdicts   []*Verdict `json:"verdicts"`
}

func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func (r *Report) Append(verdict *Verdict) {
	r.Verdicts = append(r.Verdicts, verdict)
	switch verdict.Status {
	case StatusPass:
		r.Passed++
	case StatusFail:
		r.Failed++
	default:
		r.Errored++
	}
}

// Total returns the number of recorded verdicts.
func (r *Report) Total() int {
	return len(r.Verdicts)
}

// WriteJSON exports the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteCSV exports one row per verdict with the compiled query text, the
// shape expected by spreadsheet consumers.
func (r *Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := []string{"scenario", "status", "row_count", "percentage", "details", "resolution", "error", "query"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, v := range r.Verdicts {
		record := []string{
			v.Scenario,
			string(v.Status),
			strconv.FormatInt(v.RowCount, 10),
			strconv.FormatFloat(v.Percentage, 'f', 2, 64),
			v.Details,
			string(v.Resolution),
			v.Error,
			v.Query,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write report row for %s: %w", v.Scenario, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
