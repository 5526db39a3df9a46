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
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// PlanKind names the shape of a compiled comparison plan.
type PlanKind string

const (
	PlanAggregationCompare PlanKind = "aggregation_compare"
	PlanRowCompare         PlanKind = "row_compare"
	PlanReferenceCompare   PlanKind = "reference_compare"
	PlanQualityAggregation PlanKind = "quality_aggregation"
	PlanQualityRow         PlanKind = "quality_row"
)

// Classification buckets produced by the join/classify stage.
const (
	ResultMatch      = "MATCH"
	ResultMismatch   = "MISMATCH"
	ResultSourceNull = "SOURCE_NULL"
	ResultTargetNull = "TARGET_NULL"
	ResultBothNull   = "BOTH_NULL"
)

// mismatchSampleLimit caps the MISMATCH example rows appended to row-level
// comparison output for diagnostics.
const mismatchSampleLimit = 3

// QueryPlan is the compiled, immutable comparison plan for one scenario.
// The rendered SQL is the auditable artifact shown to end users; rebuilding
// the same scenario against an unchanged schema yields byte-identical text.
type QueryPlan struct {
	ScenarioName string
	Kind         PlanKind
	SourceTable  string
	TargetTable  string
	TargetColumn string
	SourceKeys   []string
	TargetKeys   []string
	Logic        ResolvedLogic

	query string
}

// SQL returns the plan's rendered query text.
func (p *QueryPlan) SQL() string {
	return p.query
}

// PlanBuilder assembles comparison plans in a fixed dialect.
type PlanBuilder struct {
	dialect Dialect
	logger  *slog.Logger
}

func NewPlanBuilder(dialect Dialect, logger *slog.Logger) *PlanBuilder {
	if logger == nil {
		// noop logger by default
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &PlanBuilder{
		dialect: dialect,
		logger:  logger,
	}
}

// Build compiles a scenario and its resolved logic into a query plan.
// Plans follow the three-stage shape: source projection CTE, join/classify
// CTE (when a target table is declared), and an aggregate summary whose
// first result row carries validation_status, row_count, percentage and
// details columns.
func (b *PlanBuilder) Build(scenario *Scenario, logic ResolvedLogic) (*QueryPlan, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	sourceKeys := ParseJoinKeys(scenario.SourceJoinKey)
	targetKeys := ParseJoinKeys(scenario.TargetJoinKey)

	plan := &QueryPlan{
		ScenarioName: scenario.Name,
		SourceTable:  scenario.SourceTable,
		TargetTable:  scenario.TargetTable,
		TargetColumn: scenario.TargetColumn,
		SourceKeys:   sourceKeys,
		TargetKeys:   targetKeys,
		Logic:        logic,
	}

	switch {
	case logic.Kind == KindReferenceLookup:
		if scenario.QualityOnly() {
			return nil, &ConfigurationError{Scenario: scenario.Name, Reason: "reference lookup requires a target table to compare against"}
		}
		if len(logic.Reference.JoinKeys) == 0 {
			return nil, &ConfigurationError{Scenario: scenario.Name, Reason: "reference table declared but reference join key is empty"}
		}
		plan.Kind = PlanReferenceCompare
		plan.query = b.referenceCompareSQL(plan)

	case scenario.QualityOnly() && logic.IsAggregation():
		if len(sourceKeys) == 0 {
			return nil, &ConfigurationError{Scenario: scenario.Name, Reason: "aggregation logic requires a source join key for grouping"}
		}
		plan.Kind = PlanQualityAggregation
		plan.query = b.qualityAggregationSQL(plan)

	case scenario.QualityOnly():
		plan.Kind = PlanQualityRow
		plan.query = b.qualityRowSQL(plan)

	case logic.IsAggregation():
		plan.Kind = PlanAggregationCompare
		plan.query = b.compareSQL(plan, true)

	default:
		plan.Kind = PlanRowCompare
		plan.query = b.compareSQL(plan, false)
	}

	b.logger.Debug("compiled query plan",
		"scenario", scenario.Name,
		"plan_kind", string(plan.Kind),
		"dialect", b.dialect.Name())

	return plan, nil
}

// compareSQL renders the full source-vs-target comparison. Aggregation
// comparisons group the source projection by the join keys and match with
// an absolute tolerance of 0.01, since floating-point aggregation
// accumulates rounding noise; row-level comparisons require exact
// string-cast equality.
func (b *PlanBuilder) compareSQL(plan *QueryPlan, aggregated bool) string {
	d := b.dialect
	var sb strings.Builder

	keyList := strings.Join(plan.SourceKeys, ", ")
	fmt.Fprintf(&sb, "WITH source_calculated AS (\n")
	fmt.Fprintf(&sb, "    SELECT\n        %s,\n        %s AS calculated_value\n", keyList, plan.Logic.Expr(d))
	fmt.Fprintf(&sb, "    FROM %s\n", d.TableRef(plan.SourceTable))
	if aggregated {
		fmt.Fprintf(&sb, "    GROUP BY %s\n", keyList)
	}
	sb.WriteString("),\n")

	b.writeTargetActual(&sb, plan)
	b.writeJoined(&sb, plan.SourceKeys, plan.TargetKeys, "source_calculated")

	matchCondition := fmt.Sprintf("%s = %s", d.CastString("calculated_value"), d.CastString("actual_value"))
	if aggregated {
		matchCondition = fmt.Sprintf("ABS(%s - %s) < 0.01", d.CastFloat("calculated_value"), d.CastFloat("actual_value"))
	}
	b.writeComparison(&sb, matchCondition)
	b.writeCompareSummary(&sb)

	sb.WriteString(b.verdictSelect())

	if !aggregated {
		b.writeMismatchSamples(&sb)
	}

	return sb.String()
}

// referenceCompareSQL renders a lookup-style comparison: source rows are
// outer-joined to the reference table, the declared return column becomes
// the computed value, and the result is compared row-level against the
// target column.
func (b *PlanBuilder) referenceCompareSQL(plan *QueryPlan) string {
	d := b.dialect
	ref := plan.Logic.Reference
	var sb strings.Builder

	returnColumn := ref.ReturnColumn
	if returnColumn == "" {
		returnColumn = ref.LookupColumn
	}
	if returnColumn == "" {
		returnColumn = ref.JoinKeys[0]
	}

	qualifiedKeys := make([]string, 0, len(plan.SourceKeys))
	for _, key := range plan.SourceKeys {
		qualifiedKeys = append(qualifiedKeys, "s."+key)
	}

	fmt.Fprintf(&sb, "WITH source_with_lookup AS (\n")
	fmt.Fprintf(&sb, "    SELECT\n        %s,\n        r.%s AS calculated_value\n", strings.Join(qualifiedKeys, ", "), returnColumn)
	fmt.Fprintf(&sb, "    FROM %s s\n", d.TableRef(plan.SourceTable))
	fmt.Fprintf(&sb, "    LEFT JOIN %s r ON %s\n", d.TableRef(ref.Table), b.referencePredicate(plan.SourceKeys, ref.JoinKeys))
	sb.WriteString("),\n")

	b.writeTargetActual(&sb, plan)
	b.writeJoined(&sb, plan.SourceKeys, plan.TargetKeys, "source_with_lookup")

	matchCondition := fmt.Sprintf("%s = %s", d.CastString("calculated_value"), d.CastString("actual_value"))
	b.writeComparison(&sb, matchCondition)
	b.writeCompareSummary(&sb)

	sb.WriteString(b.verdictSelect())
	b.writeMismatchSamples(&sb)

	return sb.String()
}

// qualityAggregationSQL renders the no-target degradation for aggregation
// logic: the grouped projection is summarized by null rate and sign/zero
// counts, with PASS at >= 90% non-null groups.
func (b *PlanBuilder) qualityAggregationSQL(plan *QueryPlan) string {
	d := b.dialect
	var sb strings.Builder

	keyList := strings.Join(plan.SourceKeys, ", ")
	fmt.Fprintf(&sb, "WITH source_calculated AS (\n")
	fmt.Fprintf(&sb, "    SELECT\n        %s,\n        %s AS calculated_value\n", keyList, plan.Logic.Expr(d))
	fmt.Fprintf(&sb, "    FROM %s\n", d.TableRef(plan.SourceTable))
	fmt.Fprintf(&sb, "    GROUP BY %s\n", keyList)
	sb.WriteString("),\n")

	sb.WriteString("validation_summary AS (\n    SELECT\n")
	sb.WriteString("        COUNT(*) AS total_rows,\n")
	sb.WriteString("        COUNT(calculated_value) AS non_null_rows,\n")
	sb.WriteString("        COUNT(*) - COUNT(calculated_value) AS null_rows,\n")
	fmt.Fprintf(&sb, "        %s AS negative_values,\n", d.CountIf(d.CastFloat("calculated_value")+" < 0"))
	fmt.Fprintf(&sb, "        %s AS zero_values\n", d.CountIf(d.CastFloat("calculated_value")+" = 0"))
	sb.WriteString("    FROM source_calculated\n)\n")

	details := d.Concat(
		d.StringLiteral("Aggregation quality: "), d.CastString("non_null_rows"),
		d.StringLiteral(" valid of "), d.CastString("total_rows"),
		d.StringLiteral(" groups. Negatives: "), d.CastString("negative_values"),
		d.StringLiteral(", Zeros: "), d.CastString("zero_values"))

	sb.WriteString("SELECT\n")
	sb.WriteString("    CASE WHEN non_null_rows * 100.0 >= total_rows * 90.0 THEN 'PASS' ELSE 'FAIL' END AS validation_status,\n")
	sb.WriteString("    total_rows AS row_count,\n")
	sb.WriteString("    ROUND(non_null_rows * 100.0 / NULLIF(total_rows, 0), 2) AS percentage,\n")
	fmt.Fprintf(&sb, "    %s AS details\n", details)
	sb.WriteString("FROM validation_summary\nWHERE total_rows > 0")

	return sb.String()
}

// qualityRowSQL renders the no-target degradation for row-level logic:
// null rate, distinct values, empties and error-flagged values, with PASS
// at >= 95% non-null and zero error values.
func (b *PlanBuilder) qualityRowSQL(plan *QueryPlan) string {
	d := b.dialect
	var sb strings.Builder

	fmt.Fprintf(&sb, "WITH source_calculated AS (\n")
	if len(plan.SourceKeys) > 0 {
		fmt.Fprintf(&sb, "    SELECT\n        %s,\n        %s AS calculated_value\n", strings.Join(plan.SourceKeys, ", "), plan.Logic.Expr(d))
	} else {
		fmt.Fprintf(&sb, "    SELECT\n        %s AS calculated_value\n", plan.Logic.Expr(d))
	}
	fmt.Fprintf(&sb, "    FROM %s\n", d.TableRef(plan.SourceTable))
	sb.WriteString("),\n")

	castValue := d.CastString("calculated_value")
	sb.WriteString("validation_summary AS (\n    SELECT\n")
	sb.WriteString("        COUNT(*) AS total_rows,\n")
	sb.WriteString("        COUNT(calculated_value) AS non_null_rows,\n")
	sb.WriteString("        COUNT(*) - COUNT(calculated_value) AS null_rows,\n")
	sb.WriteString("        COUNT(DISTINCT calculated_value) AS distinct_values,\n")
	fmt.Fprintf(&sb, "        %s AS empty_values,\n", d.CountIf(fmt.Sprintf("LENGTH(%s) = 0", castValue)))
	fmt.Fprintf(&sb, "        %s AS error_values\n", d.CountIf(fmt.Sprintf("%s LIKE %s", castValue, d.StringLiteral("%error%"))))
	sb.WriteString("    FROM source_calculated\n)\n")

	details := d.Concat(
		d.StringLiteral("Quality check: "), d.CastString("non_null_rows"),
		d.StringLiteral(" valid of "), d.CastString("total_rows"),
		d.StringLiteral(" total. Distinct values: "), d.CastString("distinct_values"),
		d.StringLiteral(", Empty: "), d.CastString("empty_values"),
		d.StringLiteral(", Errors: "), d.CastString("error_values"))

	sb.WriteString("SELECT\n")
	sb.WriteString("    CASE WHEN non_null_rows * 100.0 >= total_rows * 95.0 AND error_values = 0 THEN 'PASS' ELSE 'FAIL' END AS validation_status,\n")
	sb.WriteString("    total_rows AS row_count,\n")
	sb.WriteString("    ROUND(non_null_rows * 100.0 / NULLIF(total_rows, 0), 2) AS percentage,\n")
	fmt.Fprintf(&sb, "    %s AS details\n", details)
	sb.WriteString("FROM validation_summary\nWHERE total_rows > 0")

	return sb.String()
}

func (b *PlanBuilder) writeTargetActual(sb *strings.Builder, plan *QueryPlan) {
	d := b.dialect
	fmt.Fprintf(sb, "target_actual AS (\n")
	fmt.Fprintf(sb, "    SELECT\n        %s,\n        %s AS actual_value\n", strings.Join(plan.TargetKeys, ", "), plan.TargetColumn)
	fmt.Fprintf(sb, "    FROM %s\n", d.TableRef(plan.TargetTable))
	fmt.Fprintf(sb, "    WHERE %s IS NOT NULL\n", plan.TargetColumn)
	sb.WriteString("),\n")
}

// writeJoined emits the outer-join stage. The join predicate always carries
// every key pair; composite keys never narrow to the first column. Engines
// without FULL OUTER JOIN get a left-join union emulation.
func (b *PlanBuilder) writeJoined(sb *strings.Builder, sourceKeys, targetKeys []string, sourceCTE string) {
	d := b.dialect

	// Key arity was validated by Scenario.Validate; this cannot fail here.
	predicate, _ := BuildJoinPredicate(sourceKeys, targetKeys, "s", "t")

	sb.WriteString("joined AS (\n")
	if d.SupportsFullOuterJoin() {
		fmt.Fprintf(sb, "    SELECT\n        %s AS join_key,\n        s.calculated_value,\n        t.actual_value\n",
			b.compositeKeyExpr("s", sourceKeys))
		fmt.Fprintf(sb, "    FROM %s s\n", sourceCTE)
		fmt.Fprintf(sb, "    FULL OUTER JOIN target_actual t ON %s\n", predicate)
	} else {
		fmt.Fprintf(sb, "    SELECT\n        %s AS join_key,\n        s.calculated_value,\n        t.actual_value\n",
			b.compositeKeyExpr("s", sourceKeys))
		fmt.Fprintf(sb, "    FROM %s s\n", sourceCTE)
		fmt.Fprintf(sb, "    LEFT JOIN target_actual t ON %s\n", predicate)
		sb.WriteString("    UNION ALL\n")
		fmt.Fprintf(sb, "    SELECT\n        %s AS join_key,\n        s.calculated_value,\n        t.actual_value\n",
			b.compositeKeyExpr("t", targetKeys))
		fmt.Fprintf(sb, "    FROM target_actual t\n")
		fmt.Fprintf(sb, "    LEFT JOIN %s s ON %s\n", sourceCTE, predicate)
		fmt.Fprintf(sb, "    WHERE s.%s IS NULL\n", sourceKeys[0])
	}
	sb.WriteString("),\n")
}

func (b *PlanBuilder) writeComparison(sb *strings.Builder, matchCondition string) {
	sb.WriteString("comparison AS (\n")
	sb.WriteString("    SELECT\n        join_key,\n        calculated_value,\n        actual_value,\n")
	sb.WriteString("        CASE\n")
	fmt.Fprintf(sb, "            WHEN calculated_value IS NULL AND actual_value IS NULL THEN '%s'\n", ResultBothNull)
	fmt.Fprintf(sb, "            WHEN calculated_value IS NULL THEN '%s'\n", ResultSourceNull)
	fmt.Fprintf(sb, "            WHEN actual_value IS NULL THEN '%s'\n", ResultTargetNull)
	fmt.Fprintf(sb, "            WHEN %s THEN '%s'\n", matchCondition, ResultMatch)
	fmt.Fprintf(sb, "            ELSE '%s'\n", ResultMismatch)
	sb.WriteString("        END AS validation_result\n")
	sb.WriteString("    FROM joined\n),\n")
}

func (b *PlanBuilder) writeCompareSummary(sb *strings.Builder) {
	d := b.dialect
	sb.WriteString("validation_summary AS (\n    SELECT\n")
	sb.WriteString("        COUNT(*) AS total_rows,\n")
	fmt.Fprintf(sb, "        %s AS matching_rows,\n", d.CountIf(fmt.Sprintf("validation_result = '%s'", ResultMatch)))
	fmt.Fprintf(sb, "        %s AS mismatched_rows,\n", d.CountIf(fmt.Sprintf("validation_result = '%s'", ResultMismatch)))
	fmt.Fprintf(sb, "        %s AS source_null_rows,\n", d.CountIf(fmt.Sprintf("validation_result = '%s'", ResultSourceNull)))
	fmt.Fprintf(sb, "        %s AS target_null_rows,\n", d.CountIf(fmt.Sprintf("validation_result = '%s'", ResultTargetNull)))
	fmt.Fprintf(sb, "        %s AS both_null_rows\n", d.CountIf(fmt.Sprintf("validation_result = '%s'", ResultBothNull)))
	sb.WriteString("    FROM comparison\n)\n")
}

// verdictSelect emits the final strict verdict: PASS only at a 100% match
// rate, anything less is FAIL. There is no partial-credit tier.
func (b *PlanBuilder) verdictSelect() string {
	d := b.dialect
	details := d.Concat(
		d.StringLiteral("Matches: "), d.CastString("matching_rows"),
		d.StringLiteral(", Mismatches: "), d.CastString("mismatched_rows"),
		d.StringLiteral(", Source Nulls: "), d.CastString("source_null_rows"),
		d.StringLiteral(", Target Nulls: "), d.CastString("target_null_rows"),
		d.StringLiteral(", Both Null: "), d.CastString("both_null_rows"))

	var sb strings.Builder
	sb.WriteString("SELECT\n")
	sb.WriteString("    CASE WHEN matching_rows = total_rows THEN 'PASS' ELSE 'FAIL' END AS validation_status,\n")
	sb.WriteString("    total_rows AS row_count,\n")
	sb.WriteString("    ROUND(matching_rows * 100.0 / NULLIF(total_rows, 0), 2) AS percentage,\n")
	fmt.Fprintf(&sb, "    %s AS details\n", details)
	sb.WriteString("FROM validation_summary\nWHERE total_rows > 0")
	return sb.String()
}

// writeMismatchSamples appends the sample branch as a derived table so its
// LIMIT binds to the samples alone. A trailing LIMIT on the union caps the
// whole set operation and, on engines without a stable union order, can
// drop the summary row itself.
func (b *PlanBuilder) writeMismatchSamples(sb *strings.Builder) {
	sb.WriteString("\nUNION ALL\nSELECT * FROM (\n")
	sb.WriteString(b.mismatchSampleSelect())
	sb.WriteString("\n) AS mismatch_samples")
}

func (b *PlanBuilder) mismatchSampleSelect() string {
	d := b.dialect
	details := d.Concat(
		d.StringLiteral("Sample mismatch - Key: "), coalesceLiteral(d, "join_key"),
		d.StringLiteral(", Source: "), coalesceLiteral(d, d.CastString("calculated_value")),
		d.StringLiteral(", Target: "), coalesceLiteral(d, d.CastString("actual_value")))

	var sb strings.Builder
	sb.WriteString("SELECT\n")
	sb.WriteString("    'MISMATCH_SAMPLE' AS validation_status,\n")
	sb.WriteString("    1 AS row_count,\n")
	sb.WriteString("    0.0 AS percentage,\n")
	fmt.Fprintf(&sb, "    %s AS details\n", details)
	fmt.Fprintf(&sb, "FROM comparison\nWHERE validation_result = '%s'\nLIMIT %d", ResultMismatch, mismatchSampleLimit)
	return sb.String()
}

func (b *PlanBuilder) compositeKeyExpr(alias string, keys []string) string {
	d := b.dialect
	if len(keys) == 1 {
		return d.CastString(alias + "." + keys[0])
	}

	args := make([]string, 0, len(keys)*2-1)
	for i, key := range keys {
		if i > 0 {
			args = append(args, d.StringLiteral("_"))
		}
		args = append(args, d.CastString(alias+"."+key))
	}
	return d.Concat(args...)
}

// referencePredicate pairs source keys with reference keys positionally
// when the counts line up, otherwise joins on the first pair only and says
// so in the log.
func (b *PlanBuilder) referencePredicate(sourceKeys, referenceKeys []string) string {
	if len(sourceKeys) == len(referenceKeys) {
		predicate, _ := BuildJoinPredicate(sourceKeys, referenceKeys, "s", "r")
		return predicate
	}

	// Build guarantees at least one key on each side before this point.
	b.logger.Warn("reference key arity differs from source keys, joining on first pair",
		"source_keys", strings.Join(sourceKeys, ","),
		"reference_keys", strings.Join(referenceKeys, ","))
	return fmt.Sprintf("s.%s = r.%s", sourceKeys[0], referenceKeys[0])
}

func coalesceLiteral(d Dialect, expr string) string {
	return fmt.Sprintf("COALESCE(%s, %s)", expr, d.StringLiteral("NULL"))
}
