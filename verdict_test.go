package reconcore

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
)

func TestReportAppendCounts(t *testing.T) {
	report := NewReport()
	report.Append(&Verdict{Scenario: "a", Status: StatusPass})
	report.Append(&Verdict{Scenario: "b", Status: StatusFail})
	report.Append(&Verdict{Scenario: "c", Status: StatusError})
	report.Append(&Verdict{Scenario: "d", Status: StatusPass})

	if report.Total() != 4 {
		t.Errorf("total = %d, expected 4", report.Total())
	}
	if report.Passed != 2 || report.Failed != 1 || report.Errored != 1 {
		t.Errorf("unexpected counts: passed=%d failed=%d errored=%d",
			report.Passed, report.Failed, report.Errored)
	}
	if report.RunID == "" {
		t.Error("report must carry a run id")
	}
}

func TestReportWriteJSON(t *testing.T) {
	report := NewReport()
	report.Append(&Verdict{
		Scenario:   "full_name_check",
		Status:     StatusPass,
		RowCount:   150,
		Percentage: 100.0,
		Resolution: ResolutionExact,
	})

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if len(decoded.Verdicts) != 1 {
		t.Fatalf("expected 1 verdict, got %d", len(decoded.Verdicts))
	}
	if decoded.Verdicts[0].Scenario != "full_name_check" || decoded.Verdicts[0].Status != StatusPass {
		t.Errorf("unexpected verdict: %+v", decoded.Verdicts[0])
	}
}

func TestReportWriteCSV(t *testing.T) {
	report := NewReport()
	report.Append(&Verdict{
		Scenario:   "total_by_customer",
		Status:     StatusFail,
		RowCount:   100,
		Percentage: 98.5,
		Details:    "Matches: 98, Mismatches: 2",
		Resolution: ResolutionExact,
		Query:      "SELECT 1",
	})
	report.Append(&Verdict{
		Scenario: "broken",
		Status:   StatusError,
		Error:    "table not found",
	})

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}

	header := strings.Join(records[0], ",")
	if header != "scenario,status,row_count,percentage,details,resolution,error,query" {
		t.Errorf("unexpected header: %s", header)
	}
	if records[1][0] != "total_by_customer" || records[1][1] != "FAIL" || records[1][3] != "98.50" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[2][1] != "ERROR" || records[2][6] != "table not found" {
		t.Errorf("unexpected second row: %v", records[2])
	}
}
