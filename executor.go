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
	"fmt"
)

// ResultSet is the normalized tabular result of one query execution.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// QueryExecutor is the boundary to the external tabular-query engine: it
// submits a compiled query and returns rows plus column names, or a
// structured error. No retry policy lives at this layer; retries, if any,
// are the caller's responsibility and must be explicit and bounded.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, query string) (*ResultSet, error)
}

// ExecutionError wraps an engine-side failure (rejected query, missing
// table or column, auth failure, timeout) with the engine's message
// preserved verbatim for debugging.
type ExecutionError struct {
	Engine string
	Query  string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s query execution failed: %v", e.Engine, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
