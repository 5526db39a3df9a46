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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// RunnerOptions tunes one validation run.
type RunnerOptions struct {
	// Timeout bounds each scenario's engine round trip. Zero means no
	// per-scenario deadline. A timed-out scenario is recorded as ERROR with
	// a timeout cause; the batch continues.
	Timeout time.Duration

	// MaxConcurrency > 1 executes scenarios through a bounded task pool.
	// Scenarios share no writable state, so parallel execution only needs
	// the per-slot results sink used here. Default is sequential.
	MaxConcurrency int
}

// ScenarioRunner drives a batch of scenarios through classification, plan
// building and execution. One scenario's failure never aborts the batch.
type ScenarioRunner struct {
	classifier *LogicClassifier
	builder    *PlanBuilder
	executor   QueryExecutor
	logger     *slog.Logger
	opts       RunnerOptions
}

func NewScenarioRunner(schema SchemaCatalog, dialect Dialect, executor QueryExecutor, logger *slog.Logger, opts RunnerOptions) *ScenarioRunner {
	if logger == nil {
		// noop logger by default
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ScenarioRunner{
		classifier: NewLogicClassifier(schema, logger),
		builder:    NewPlanBuilder(dialect, logger),
		executor:   executor,
		logger:     logger,
		opts:       opts,
	}
}

// Run executes the scenarios in declaration order and returns the
// aggregated report. Verdict order always matches scenario order, also in
// parallel mode.
func (r *ScenarioRunner) Run(ctx context.Context, scenarios []*Scenario) *Report {
	report := NewReport()

	if r.opts.MaxConcurrency > 1 {
		verdicts := make([]*Verdict, len(scenarios))
		pool := NewTaskPool(r.opts.MaxConcurrency, r.logger)
		for i, scenario := range scenarios {
			i, scenario := i, scenario
			pool.Enqueue(scenario.Name, func() error {
				verdicts[i] = r.RunScenario(ctx, scenario)
				return nil
			})
		}
		pool.Join()
		for _, verdict := range verdicts {
			report.Append(verdict)
		}
	} else {
		for _, scenario := range scenarios {
			report.Append(r.RunScenario(ctx, scenario))
		}
	}

	report.FinishedAt = time.Now().UTC()
	r.logger.Info("validation run completed",
		"run_id", report.RunID,
		"total", report.Total(),
		"passed", report.Passed,
		"failed", report.Failed,
		"errored", report.Errored)

	return report
}

// RunScenario resolves, compiles and executes one scenario. Any resolution,
// build or execution failure yields an ERROR verdict carrying the message;
// it never propagates.
func (r *ScenarioRunner) RunScenario(ctx context.Context, scenario *Scenario) *Verdict {
	verdict := &Verdict{
		Scenario: scenario.Name,
		Status:   StatusError,
	}

	startTime := time.Now()
	defer func() {
		verdict.DurationMs = time.Since(startTime).Milliseconds()
	}()

	if err := scenario.Validate(); err != nil {
		verdict.Error = err.Error()
		return verdict
	}

	logic := r.classifier.ClassifyScenario(scenario)
	verdict.Resolution = logic.Resolution

	plan, err := r.builder.Build(scenario, logic)
	if err != nil {
		verdict.Error = fmt.Sprintf("failed to build comparison plan: %v", err)
		return verdict
	}
	verdict.Query = plan.SQL()

	execCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	r.logger.Debug("executing comparison plan",
		"scenario", scenario.Name,
		"plan_kind", string(plan.Kind))

	result, err := r.executor.ExecuteQuery(execCtx, plan.SQL())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			verdict.Error = fmt.Sprintf("scenario timed out after %s", r.opts.Timeout)
		} else {
			verdict.Error = err.Error()
		}
		return verdict
	}

	r.fillVerdict(verdict, result)
	return verdict
}

// fillVerdict maps the summary result set onto the verdict. The first
// summary row carries validation_status/row_count/percentage/details;
// MISMATCH_SAMPLE rows become diagnostic samples.
func (r *ScenarioRunner) fillVerdict(verdict *Verdict, result *ResultSet) {
	index := make(map[string]int, len(result.Columns))
	for i, name := range result.Columns {
		index[strings.ToLower(name)] = i
	}

	cell := func(row []any, column string) (any, bool) {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return nil, false
		}
		return row[i], true
	}

	summaryFound := false
	for _, row := range result.Rows {
		statusCell, ok := cell(row, "validation_status")
		if !ok {
			continue
		}
		status := strings.ToUpper(cast.ToString(statusCell))

		if status == "MISMATCH_SAMPLE" {
			if details, ok := cell(row, "details"); ok {
				verdict.MismatchSamples = append(verdict.MismatchSamples, cast.ToString(details))
			}
			continue
		}
		if summaryFound {
			continue
		}
		summaryFound = true

		if status == string(StatusPass) {
			verdict.Status = StatusPass
		} else {
			verdict.Status = StatusFail
		}
		if v, ok := cell(row, "row_count"); ok {
			verdict.RowCount = cast.ToInt64(v)
		}
		if v, ok := cell(row, "percentage"); ok {
			verdict.Percentage = cast.ToFloat64(v)
		}
		if v, ok := cell(row, "details"); ok {
			verdict.Details = cast.ToString(v)
		}
	}

	if !summaryFound {
		// Both sides empty: the summary stage filters zero-row comparisons.
		verdict.Status = StatusError
		verdict.Error = "query returned no summary row (no rows to compare)"
	}
}
