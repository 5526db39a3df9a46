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
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataBridgeTech/reconcore"
	"github.com/DataBridgeTech/reconcore/recon"
)

type compileOptions struct {
	*rootOptions
	ScenariosPath string
	Offline       bool
}

func newCompileCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &compileOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the comparison query for each scenario without executing",
		Long: `Resolve each scenario and print the compiled comparison query.

By default the data source is dialed so column resolution can use the live
schema; with --offline no connection is made and every scenario resolves
through the fallback ladder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compileScenarios(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ScenariosPath, "scenarios", "s", "scenarios.yaml", "path to scenarios file (.yaml or .csv)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "compile without connecting to the data source")

	return cmd
}

func compileScenarios(cmd *cobra.Command, opts *compileOptions) error {
	logger := newLogger(opts.Verbose)

	_, dataSource, err := resolveDataSource(opts.rootOptions)
	if err != nil {
		return err
	}

	scenarios, err := loadScenarios(opts.ScenariosPath)
	if err != nil {
		return fmt.Errorf("failed to load scenarios %s: %w", opts.ScenariosPath, err)
	}

	dialect, err := recon.NewDialect(dataSource)
	if err != nil {
		return err
	}

	var catalog reconcore.SchemaCatalog
	if opts.Offline {
		catalog = reconcore.NewStaticSchemaCatalog(nil)
	} else {
		var db *sql.DB
		db, err = recon.Open(dataSource)
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, err = recon.NewSchemaCatalog(dataSource, db, logger)
		if err != nil {
			return err
		}
	}

	classifier := reconcore.NewLogicClassifier(catalog, logger)
	builder := reconcore.NewPlanBuilder(dialect, logger)

	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	out := cmd.OutOrStdout()

	for _, scenario := range scenarios {
		fmt.Fprintf(out, "-- %s\n", bold(scenario.Name))

		if err := scenario.Validate(); err != nil {
			fmt.Fprintf(out, "-- %s: %v\n\n", red("invalid"), err)
			continue
		}

		logic := classifier.ClassifyScenario(scenario)
		if logic.Resolution == reconcore.ResolutionFallback {
			fmt.Fprintf(out, "-- %s\n", yellow("resolved via fallback"))
		}

		plan, err := builder.Build(scenario, logic)
		if err != nil {
			fmt.Fprintf(out, "-- %s: %v\n\n", red("plan error"), err)
			continue
		}

		fmt.Fprintf(out, "%s;\n\n", plan.SQL())
	}

	return nil
}
