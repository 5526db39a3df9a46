package reconcore

import (
	"errors"
	"strings"
	"testing"
)

func TestExecutionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ExecutionError{Engine: "clickhouse", Query: "SELECT 1", Err: cause}

	if !strings.Contains(err.Error(), "clickhouse") {
		t.Errorf("error text must name the engine: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ExecutionError must unwrap to its cause")
	}
}
