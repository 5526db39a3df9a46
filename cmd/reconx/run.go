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
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataBridgeTech/reconcore"
	"github.com/DataBridgeTech/reconcore/recon"
)

type runOptions struct {
	*rootOptions
	ScenariosPath string
	ReportPath    string
	ShowSamples   bool
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute validation scenarios and print verdicts",
		Long: `Execute validation scenarios against the configured data source.

Scenarios come from a YAML declaration file or a CSV spreadsheet export.
Each scenario is resolved, compiled into a single comparison query and
executed; one failing scenario never stops the batch.

Example:
  reconx run -c reconx.yaml -s scenarios.yaml
  reconx run -s mapping_export.csv --report report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ScenariosPath, "scenarios", "s", "scenarios.yaml", "path to scenarios file (.yaml or .csv)")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "export report to file (.json or .csv)")
	cmd.Flags().BoolVar(&opts.ShowSamples, "samples", false, "print mismatch samples for failed scenarios")

	return cmd
}

func runScenarios(cmd *cobra.Command, opts *runOptions) error {
	logger := newLogger(opts.Verbose)

	cfg, dataSource, err := resolveDataSource(opts.rootOptions)
	if err != nil {
		return err
	}

	scenarios, err := loadScenarios(opts.ScenariosPath)
	if err != nil {
		return fmt.Errorf("failed to load scenarios %s: %w", opts.ScenariosPath, err)
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no runnable scenarios in %s", opts.ScenariosPath)
	}

	db, err := recon.Open(dataSource)
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := recon.NewScenarioRunner(dataSource, db, logger, reconcore.RunnerOptions{
		Timeout:        cfg.ScenarioTimeout,
		MaxConcurrency: cfg.MaxConcurrency,
	})
	if err != nil {
		return err
	}

	logger.Info("starting validation run",
		"datasource", dataSource.ID,
		"scenarios", len(scenarios))

	report := runner.Run(cmd.Context(), scenarios)
	printReport(cmd, opts, report)

	if opts.ReportPath != "" {
		if err := exportReport(report, opts.ReportPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", opts.ReportPath)
	}

	if report.Failed > 0 || report.Errored > 0 {
		return fmt.Errorf("%d of %d scenarios did not pass", report.Failed+report.Errored, report.Total())
	}
	return nil
}

func printReport(cmd *cobra.Command, opts *runOptions, report *reconcore.Report) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, verdict := range report.Verdicts {
		var label string
		switch verdict.Status {
		case reconcore.StatusPass:
			label = green("PASS ")
		case reconcore.StatusFail:
			label = red("FAIL ")
		default:
			label = yellow("ERROR")
		}

		line := fmt.Sprintf("[%s] %s", label, verdict.Scenario)
		if verdict.Status == reconcore.StatusError {
			line += ": " + verdict.Error
		} else {
			line += fmt.Sprintf(": %d rows, %.2f%% matching", verdict.RowCount, verdict.Percentage)
			if verdict.Details != "" {
				line += " (" + verdict.Details + ")"
			}
		}
		if verdict.Resolution == reconcore.ResolutionFallback {
			line += " " + yellow("[fallback]")
		}
		fmt.Fprintln(out, line)

		if opts.ShowSamples {
			for _, sample := range verdict.MismatchSamples {
				fmt.Fprintf(out, "         sample: %s\n", sample)
			}
		}
	}

	fmt.Fprintf(out, "\nrun %s: %d passed, %d failed, %d errored (total %d)\n",
		report.RunID, report.Passed, report.Failed, report.Errored, report.Total())
}

func exportReport(report *reconcore.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return report.WriteCSV(file)
	}
	return report.WriteJSON(file)
}
