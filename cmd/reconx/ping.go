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
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataBridgeTech/reconcore/recon"
)

func newPingCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity for every configured data source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveDataSource(rootOpts)
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()
			out := cmd.OutOrStdout()

			failures := 0
			for _, dataSource := range cfg.DataSources {
				db, err := recon.Open(dataSource)
				if err != nil {
					fmt.Fprintf(out, "[%s] %s: %v\n", red("FAIL"), dataSource.ID, err)
					failures++
					continue
				}

				start := time.Now()
				err = db.PingContext(cmd.Context())
				_ = db.Close()
				if err != nil {
					fmt.Fprintf(out, "[%s] %s: %v\n", red("FAIL"), dataSource.ID, err)
					failures++
					continue
				}

				fmt.Fprintf(out, "[%s] %s (%s, %dms)\n",
					green("OK"), dataSource.ID, dataSource.Type, time.Since(start).Milliseconds())
			}

			if failures > 0 {
				return fmt.Errorf("%d data source(s) unreachable", failures)
			}
			return nil
		},
	}

	return cmd
}
