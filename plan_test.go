package reconcore

import (
	"errors"
	"strings"
	"testing"
)

func rowCompareScenario() *Scenario {
	return &Scenario{
		Name:            "full_name_check",
		SourceTable:     "customers",
		TargetTable:     "dim_customers",
		SourceJoinKey:   "customer_id",
		TargetJoinKey:   "cust_id",
		TargetColumn:    "full_name",
		DerivationLogic: "CONCAT(first_name, ' ', last_name)",
	}
}

func aggregationScenario() *Scenario {
	return &Scenario{
		Name:            "total_by_customer",
		SourceTable:     "orders",
		TargetTable:     "customer_totals",
		SourceJoinKey:   "customer_id",
		TargetJoinKey:   "cust_id",
		TargetColumn:    "total_amount",
		DerivationLogic: "SUM(amount) GROUP_BY customer_id",
	}
}

func TestBuildRowComparePlan(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	logic := ResolvedLogic{Kind: KindConcatenation, Resolution: ResolutionExact,
		Columns: []string{"first_name", "last_name"}, Separator: " "}

	plan, err := builder.Build(rowCompareScenario(), logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Kind != PlanRowCompare {
		t.Errorf("plan kind = %s, expected %s", plan.Kind, PlanRowCompare)
	}

	query := plan.SQL()
	for _, fragment := range []string{
		"WITH source_calculated AS (",
		"CONCAT(first_name, ' ', last_name) AS calculated_value",
		"target_actual AS (",
		"WHERE full_name IS NOT NULL",
		"joined AS (",
		"FULL OUTER JOIN target_actual t ON s.customer_id = t.cust_id",
		"comparison AS (",
		"WHEN calculated_value IS NULL AND actual_value IS NULL THEN 'BOTH_NULL'",
		"WHEN calculated_value IS NULL THEN 'SOURCE_NULL'",
		"WHEN actual_value IS NULL THEN 'TARGET_NULL'",
		"WHEN CAST(calculated_value AS STRING) = CAST(actual_value AS STRING) THEN 'MATCH'",
		"ELSE 'MISMATCH'",
		"validation_summary AS (",
		"CASE WHEN matching_rows = total_rows THEN 'PASS' ELSE 'FAIL' END AS validation_status",
		"WHERE total_rows > 0",
		"'MISMATCH_SAMPLE' AS validation_status",
		"LIMIT 3",
		") AS mismatch_samples",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query missing fragment %q\nquery:\n%s", fragment, query)
		}
	}

	if strings.Contains(query, "GROUP BY") {
		t.Error("row-level comparison must not group the source projection")
	}
}

func TestBuildAggregationComparePlan(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	logic := ResolvedLogic{Kind: KindAggregation, Resolution: ResolutionExact,
		AggregateFunc: "SUM", Column: "amount"}

	plan, err := builder.Build(aggregationScenario(), logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Kind != PlanAggregationCompare {
		t.Errorf("plan kind = %s, expected %s", plan.Kind, PlanAggregationCompare)
	}

	query := plan.SQL()
	for _, fragment := range []string{
		"SUM(amount) AS calculated_value",
		"GROUP BY customer_id",
		"ABS(CAST(calculated_value AS FLOAT64) - CAST(actual_value AS FLOAT64)) < 0.01",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query missing fragment %q\nquery:\n%s", fragment, query)
		}
	}

	if strings.Contains(query, "MISMATCH_SAMPLE") {
		t.Error("aggregation comparison must not append sample rows")
	}
}

func TestBuildCompositeKeyPlan(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := rowCompareScenario()
	scenario.SourceJoinKey = "customer_id, region_code"
	scenario.TargetJoinKey = "cust_id, region"

	logic := ResolvedLogic{Kind: KindPassthrough, Resolution: ResolutionExact, Column: "status"}

	plan, err := builder.Build(scenario, logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query := plan.SQL()
	if !strings.Contains(query, "ON s.customer_id = t.cust_id AND s.region_code = t.region") {
		t.Errorf("join predicate must carry every key pair\nquery:\n%s", query)
	}
	if !strings.Contains(query, "CONCAT(CAST(s.customer_id AS STRING), '_', CAST(s.region_code AS STRING))") {
		t.Errorf("composite join_key must concatenate all key columns\nquery:\n%s", query)
	}
}

func TestMismatchSampleLimitScopedToSamples(t *testing.T) {
	builder := NewPlanBuilder(&SQLiteDialect{}, nil)

	logic := ResolvedLogic{Kind: KindPassthrough, Resolution: ResolutionExact, Column: "status"}

	plan, err := builder.Build(rowCompareScenario(), logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The sample LIMIT must live inside a derived table; a trailing LIMIT
	// on the union would cap summary and samples together.
	query := plan.SQL()
	if !strings.HasSuffix(query, ") AS mismatch_samples") {
		t.Errorf("query must end by closing the sample derived table\nquery:\n%s", query)
	}
	if !strings.Contains(query, "UNION ALL\nSELECT * FROM (") {
		t.Errorf("sample branch must be wrapped in a derived table\nquery:\n%s", query)
	}
	limitIdx := strings.Index(query, "LIMIT 3")
	closeIdx := strings.Index(query, ") AS mismatch_samples")
	if limitIdx == -1 || closeIdx == -1 || limitIdx > closeIdx {
		t.Errorf("LIMIT must appear inside the sample derived table\nquery:\n%s", query)
	}
}

func TestBuildMySQLEmulatesFullOuterJoin(t *testing.T) {
	builder := NewPlanBuilder(&MySQLDialect{}, nil)

	logic := ResolvedLogic{Kind: KindPassthrough, Resolution: ResolutionExact, Column: "status"}

	plan, err := builder.Build(rowCompareScenario(), logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query := plan.SQL()
	if strings.Contains(query, "FULL OUTER JOIN") {
		t.Error("mysql plans must not use FULL OUTER JOIN")
	}
	for _, fragment := range []string{
		"LEFT JOIN target_actual t ON s.customer_id = t.cust_id",
		"UNION ALL",
		"LEFT JOIN source_calculated s ON s.customer_id = t.cust_id",
		"WHERE s.customer_id IS NULL",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query missing fragment %q\nquery:\n%s", fragment, query)
		}
	}
}

func TestBuildQualityAggregationPlan(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := &Scenario{
		Name:            "orders_quality",
		SourceTable:     "orders",
		SourceJoinKey:   "customer_id",
		DerivationLogic: "SUM(amount) GROUP_BY customer_id",
	}
	logic := ResolvedLogic{Kind: KindAggregation, Resolution: ResolutionExact,
		AggregateFunc: "SUM", Column: "amount"}

	plan, err := builder.Build(scenario, logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Kind != PlanQualityAggregation {
		t.Errorf("plan kind = %s, expected %s", plan.Kind, PlanQualityAggregation)
	}

	query := plan.SQL()
	for _, fragment := range []string{
		"GROUP BY customer_id",
		"non_null_rows * 100.0 >= total_rows * 90.0",
		"negative_values",
		"zero_values",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query missing fragment %q\nquery:\n%s", fragment, query)
		}
	}
}

func TestBuildQualityAggregationRequiresSourceKey(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := &Scenario{
		Name:            "orders_quality",
		SourceTable:     "orders",
		DerivationLogic: "SUM(amount) GROUP_BY customer_id",
	}
	logic := ResolvedLogic{Kind: KindAggregation, AggregateFunc: "SUM", Column: "amount"}

	_, err := builder.Build(scenario, logic)
	if err == nil {
		t.Fatal("expected error for aggregation quality check without source key")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *ConfigurationError, got %T", err)
	}
}

func TestBuildQualityRowPlan(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := &Scenario{
		Name:            "status_quality",
		SourceTable:     "customers",
		DerivationLogic: "status",
	}
	logic := ResolvedLogic{Kind: KindPassthrough, Resolution: ResolutionExact, Column: "status"}

	plan, err := builder.Build(scenario, logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Kind != PlanQualityRow {
		t.Errorf("plan kind = %s, expected %s", plan.Kind, PlanQualityRow)
	}

	query := plan.SQL()
	for _, fragment := range []string{
		"non_null_rows * 100.0 >= total_rows * 95.0 AND error_values = 0",
		"distinct_values",
		"empty_values",
		"LIKE '%error%'",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query missing fragment %q\nquery:\n%s", fragment, query)
		}
	}
}

func TestBuildReferenceComparePlan(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := rowCompareScenario()
	scenario.Name = "region_lookup"
	scenario.TargetColumn = "region_name"
	logic := ResolvedLogic{
		Kind:       KindReferenceLookup,
		Resolution: ResolutionExact,
		Reference: &ReferenceLookup{
			Table:        "regions",
			JoinKeys:     []string{"region_code"},
			ReturnColumn: "region_name",
		},
	}

	plan, err := builder.Build(scenario, logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Kind != PlanReferenceCompare {
		t.Errorf("plan kind = %s, expected %s", plan.Kind, PlanReferenceCompare)
	}

	query := plan.SQL()
	for _, fragment := range []string{
		"WITH source_with_lookup AS (",
		"r.region_name AS calculated_value",
		"LEFT JOIN regions r ON s.customer_id = r.region_code",
		"FULL OUTER JOIN target_actual t",
		"MISMATCH_SAMPLE",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("query missing fragment %q\nquery:\n%s", fragment, query)
		}
	}
}

func TestBuildReferenceCompareRequiresJoinKeys(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := rowCompareScenario()
	logic := ResolvedLogic{
		Kind:      KindReferenceLookup,
		Reference: &ReferenceLookup{Table: "regions"},
	}

	_, err := builder.Build(scenario, logic)
	if err == nil {
		t.Fatal("expected error for reference lookup without join keys")
	}
}

func TestBuildReferenceCompareRequiresTarget(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := &Scenario{
		Name:            "ref_without_target",
		SourceTable:     "customers",
		DerivationLogic: "LOOKUP region",
	}
	logic := ResolvedLogic{
		Kind:      KindReferenceLookup,
		Reference: &ReferenceLookup{Table: "regions", JoinKeys: []string{"region_code"}},
	}

	_, err := builder.Build(scenario, logic)
	if err == nil {
		t.Fatal("expected error for reference lookup without a target table")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *ConfigurationError, got %T", err)
	}
}

func TestBuildRejectsInvalidScenario(t *testing.T) {
	builder := NewPlanBuilder(&BigQueryDialect{}, nil)

	scenario := rowCompareScenario()
	scenario.TargetColumn = ""

	_, err := builder.Build(scenario, ResolvedLogic{Kind: KindPassthrough, Column: "status"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	builder := NewPlanBuilder(&ClickHouseDialect{}, nil)

	logic := ResolvedLogic{Kind: KindConcatenation, Resolution: ResolutionExact,
		Columns: []string{"first_name", "last_name"}, Separator: " "}

	first, err := builder.Build(rowCompareScenario(), logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := builder.Build(rowCompareScenario(), logic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.SQL() != second.SQL() {
		t.Error("rebuilding the same scenario must yield byte-identical SQL")
	}
}
