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

	"github.com/spf13/cobra"

	"github.com/DataBridgeTech/reconcore/recon"
)

// rootOptions holds global flags shared by all subcommands.
type rootOptions struct {
	ConfigPath   string
	DataSourceID string
	Verbose      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "reconx",
		Short:         "reconx - transformation reconciliation runner",
		Long:          "Compiles transformation scenarios into validation queries and checks derived columns against their source data.",
		Version:       recon.GetReconCoreLibVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "reconx.yaml", "path to data sources config")
	cmd.PersistentFlags().StringVar(&opts.DataSourceID, "datasource", "", "data source id from config (default: first)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newPingCommand(opts))

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
