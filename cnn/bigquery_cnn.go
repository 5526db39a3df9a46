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

package cnn

import (
	"database/sql"
	"fmt"

	"github.com/DataBridgeTech/reconcore"
	_ "github.com/viant/bigquery"
)

func NewBigqueryConnection(connectionCfg reconcore.ConnectionConfig) (*sql.DB, error) {
	if connectionCfg.Project == "" || connectionCfg.Dataset == "" {
		return nil, fmt.Errorf("bigquery connection requires project and dataset")
	}

	connStr := fmt.Sprintf("bigquery://%s/%s", connectionCfg.Project, connectionCfg.Dataset)
	db, err := sql.Open("bigquery", connStr)
	if err != nil {
		return nil, err
	}

	return db, nil
}
