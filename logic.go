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
	"regexp"
	"strings"
)

// LogicKind tags the pattern family a derivation-logic string resolved to.
type LogicKind string

const (
	KindAggregation     LogicKind = "aggregation"
	KindConcatenation   LogicKind = "concatenation"
	KindConditional     LogicKind = "conditional"
	KindCompleteness    LogicKind = "completeness"
	KindFormatCheck     LogicKind = "format_check"
	KindRangeCheck      LogicKind = "range_check"
	KindPassthrough     LogicKind = "passthrough"
	KindReferenceLookup LogicKind = "reference_lookup"
	KindLiteral         LogicKind = "literal"
)

// Resolution states whether a fragment reflects the author's logic exactly
// or a weaker fallback substituted to keep the batch running. A PASS verdict
// produced from a fallback fragment validates less than it appears to;
// consumers need the distinction.
type Resolution string

const (
	ResolutionExact    Resolution = "exact"
	ResolutionFallback Resolution = "fallback"
)

// ReferenceLookup describes a lookup-style derivation against a reference
// table.
type ReferenceLookup struct {
	Table        string
	JoinKeys     []string
	LookupColumn string
	ReturnColumn string
}

// ResolvedLogic is the schema-safe translation of a derivation-logic string.
// Only the fields relevant to Kind are populated. A resolved fragment always
// renders to a valid expression over columns known to exist for the source
// table; unknown-column logic never leaves the classifier unresolved.
type ResolvedLogic struct {
	Kind       LogicKind
	Resolution Resolution

	// Aggregation
	AggregateFunc string
	Column        string

	// Concatenation
	Columns   []string
	Separator string

	// Conditional (verbatim CASE expression)
	RawExpr string

	// RangeCheck
	MinValue string
	MaxValue string

	// FormatCheck
	MinLength    int
	ValidLabel   string
	InvalidLabel string

	// Literal
	Literal any

	// ReferenceLookup
	Reference *ReferenceLookup
}

// IsAggregation reports whether the fragment requires grouping by the join
// keys on the source side.
func (l ResolvedLogic) IsAggregation() bool {
	return l.Kind == KindAggregation
}

// Expr renders the fragment as a value expression in the given dialect.
// Rendering is deterministic: the same fragment and dialect always produce
// the same text.
func (l ResolvedLogic) Expr(dialect Dialect) string {
	switch l.Kind {
	case KindAggregation:
		return fmt.Sprintf("%s(%s)", l.AggregateFunc, l.Column)

	case KindConcatenation:
		sep := l.Separator
		if sep == "" {
			sep = " "
		}
		args := make([]string, 0, len(l.Columns)*2-1)
		for i, col := range l.Columns {
			if i > 0 {
				args = append(args, dialect.StringLiteral(sep))
			}
			args = append(args, col)
		}
		return dialect.Concat(args...)

	case KindConditional:
		return normalizeStringLiterals(l.RawExpr, dialect)

	case KindCompleteness:
		terms := make([]string, 0, len(l.Columns))
		for _, col := range l.Columns {
			terms = append(terms, fmt.Sprintf("CASE WHEN %s IS NOT NULL THEN 1 ELSE 0 END", col))
		}
		return fmt.Sprintf("(%s) * 100.0 / %d", strings.Join(terms, " + "), len(l.Columns))

	case KindFormatCheck:
		return fmt.Sprintf("CASE WHEN %s IS NOT NULL AND LENGTH(%s) > %d THEN %s ELSE %s END",
			l.Column, l.Column, l.MinLength,
			dialect.StringLiteral(l.ValidLabel), dialect.StringLiteral(l.InvalidLabel))

	case KindRangeCheck:
		condition := fmt.Sprintf("%s >= %s", l.Column, l.MinValue)
		if l.MaxValue != "" {
			condition = fmt.Sprintf("%s AND %s <= %s", condition, l.Column, l.MaxValue)
		}
		return fmt.Sprintf("CASE WHEN %s THEN %s ELSE %s END",
			condition, dialect.StringLiteral(l.ValidLabel), dialect.StringLiteral(l.InvalidLabel))

	case KindPassthrough:
		return l.Column

	case KindLiteral:
		if s, ok := l.Literal.(string); ok {
			return dialect.StringLiteral(s)
		}
		return fmt.Sprintf("%v", l.Literal)

	default:
		// Reference lookups are assembled at the plan level, not as a
		// standalone expression.
		return ""
	}
}

// LogicClassifier resolves free-form derivation logic into schema-safe
// fragments. Classification is an ordered pattern match: the first matching
// rule wins, keywords are case-insensitive, and every path terminates in a
// resolvable fragment. A malformed rule degrades to a weaker check instead
// of failing the scenario.
type LogicClassifier struct {
	schema SchemaCatalog
	logger *slog.Logger
}

func NewLogicClassifier(schema SchemaCatalog, logger *slog.Logger) *LogicClassifier {
	if logger == nil {
		// noop logger by default
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &LogicClassifier{
		schema: schema,
		logger: logger,
	}
}

var (
	aggregateExpr  = regexp.MustCompile(`(?i)^(SUM|COUNT|AVG|MAX|MIN)\(([^)]*)\)`)
	concatExpr     = regexp.MustCompile(`(?i)^CONCAT\((.*)\)`)
	notNullExpr    = regexp.MustCompile(`(?i)CHECK_NOT_NULL\(([^)]*)\)`)
	rangeCheckExpr = regexp.MustCompile(`(?i)RANGE_CHECK\(\s*(\w+)([^)]*)\)`)
	minValueExpr   = regexp.MustCompile(`(?i)min_value\s*=\s*(-?[0-9.]+)`)
	maxValueExpr   = regexp.MustCompile(`(?i)max_value\s*=\s*(-?[0-9.]+)`)
	identifierExpr = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	quotedExpr     = regexp.MustCompile(`"[^"]*"|'[^']*'`)
)

// completenessSynonyms maps conventional column names used in authored
// completeness checks onto the columns that actually carry the data.
var completenessSynonyms = map[string]string{
	"email": "address",
}

// sqlKeywords are identifiers that never count as column references when a
// conditional expression is scanned for unknown columns.
var sqlKeywords = map[string]bool{
	"case": true, "when": true, "then": true, "else": true, "end": true,
	"and": true, "or": true, "not": true, "is": true, "null": true,
	"in": true, "like": true, "between": true, "true": true, "false": true,
}

// Classify resolves a derivation-logic string for a source table. Rules are
// tried in a fixed order; overlapping keywords make the order load-bearing,
// so new patterns must slot in explicitly rather than append blindly.
func (c *LogicClassifier) Classify(logic, sourceTable string) ResolvedLogic {
	logic = strings.TrimSpace(logic)
	upper := strings.ToUpper(logic)

	// 1. Aggregation with a grouping marker.
	if m := aggregateExpr.FindStringSubmatch(logic); m != nil && strings.Contains(upper, "GROUP_BY") {
		fn := strings.ToUpper(m[1])
		column := strings.ToLower(strings.TrimSpace(m[2]))

		if column == "*" && fn == "COUNT" {
			return ResolvedLogic{Kind: KindAggregation, Resolution: ResolutionExact, AggregateFunc: "COUNT", Column: "*"}
		}
		if HasColumn(c.schema, sourceTable, column) {
			return ResolvedLogic{Kind: KindAggregation, Resolution: ResolutionExact, AggregateFunc: fn, Column: column}
		}

		// Unknown column: degrade to group cardinality so the scenario can
		// still verify grouping, trading precision for availability.
		c.logger.Warn("aggregation column not found in schema, degrading to COUNT(*)",
			"logic", logic, "source_table", sourceTable, "column", column)
		return ResolvedLogic{Kind: KindAggregation, Resolution: ResolutionFallback, AggregateFunc: "COUNT", Column: "*"}
	}

	// 2. String concatenation.
	if m := concatExpr.FindStringSubmatch(logic); m != nil {
		columns, separator := splitConcatArgs(m[1])
		if len(columns) >= 2 && c.allKnown(sourceTable, columns) {
			return ResolvedLogic{Kind: KindConcatenation, Resolution: ResolutionExact, Columns: columns, Separator: separator}
		}
		if HasColumn(c.schema, sourceTable, "first_name") && HasColumn(c.schema, sourceTable, "last_name") {
			c.logger.Warn("concat operands not resolvable, falling back to first_name/last_name",
				"logic", logic, "source_table", sourceTable)
			return ResolvedLogic{Kind: KindConcatenation, Resolution: ResolutionFallback,
				Columns: []string{"first_name", "last_name"}, Separator: " "}
		}
		c.logger.Warn("concat operands not resolvable, falling back to empty literal",
			"logic", logic, "source_table", sourceTable)
		return ResolvedLogic{Kind: KindLiteral, Resolution: ResolutionFallback, Literal: ""}
	}

	// 3. CASE WHEN conditional: preserved verbatim when every referenced
	// column is known, since templating it would lose the business logic.
	if strings.HasPrefix(upper, "CASE WHEN") && strings.Contains(upper, "END") {
		if unknown := c.unknownColumnTokens(logic, sourceTable); len(unknown) == 0 {
			return ResolvedLogic{Kind: KindConditional, Resolution: ResolutionExact, RawExpr: logic}
		} else {
			c.logger.Warn("conditional references unknown columns, falling back to literal",
				"logic", logic, "source_table", sourceTable, "unknown_columns", strings.Join(unknown, ","))
			return ResolvedLogic{Kind: KindLiteral, Resolution: ResolutionFallback, Literal: "Standard"}
		}
	}

	// 4. Completeness check.
	if m := notNullExpr.FindStringSubmatch(logic); m != nil {
		resolved := []string{}
		dropped := 0
		for _, arg := range strings.Split(m[1], ",") {
			column := strings.ToLower(strings.TrimSpace(arg))
			if column == "" {
				continue
			}
			if mapped, ok := completenessSynonyms[column]; ok && HasColumn(c.schema, sourceTable, mapped) {
				resolved = append(resolved, mapped)
				continue
			}
			if HasColumn(c.schema, sourceTable, column) {
				resolved = append(resolved, column)
				continue
			}
			dropped++
		}

		if len(resolved) == 0 {
			// Fail-open: report full completeness rather than abort the run.
			c.logger.Warn("no completeness columns resolved, falling back to constant 100",
				"logic", logic, "source_table", sourceTable)
			return ResolvedLogic{Kind: KindLiteral, Resolution: ResolutionFallback, Literal: 100}
		}

		resolution := ResolutionExact
		if dropped > 0 {
			resolution = ResolutionFallback
		}
		return ResolvedLogic{Kind: KindCompleteness, Resolution: resolution, Columns: resolved}
	}

	// 5. Format validation.
	if strings.Contains(upper, "VALIDATE_EMAIL_FORMAT") || strings.Contains(upper, "VALIDATE_ADDRESS_FORMAT") {
		if HasColumn(c.schema, sourceTable, "address") {
			return ResolvedLogic{Kind: KindFormatCheck, Resolution: ResolutionExact, Column: "address",
				MinLength: 10, ValidLabel: "Valid Address", InvalidLabel: "Invalid Address"}
		}
		if HasColumn(c.schema, sourceTable, "full_name") {
			return ResolvedLogic{Kind: KindFormatCheck, Resolution: ResolutionExact, Column: "full_name",
				MinLength: 3, ValidLabel: "Valid Name", InvalidLabel: "Invalid Name"}
		}
		c.logger.Warn("no format-check candidate column found, falling back to literal",
			"logic", logic, "source_table", sourceTable)
		return ResolvedLogic{Kind: KindLiteral, Resolution: ResolutionFallback, Literal: "Valid"}
	}

	// 6. Range check.
	if m := rangeCheckExpr.FindStringSubmatch(logic); m != nil {
		column := strings.ToLower(m[1])
		if HasColumn(c.schema, sourceTable, column) {
			minValue, maxValue := "0", ""
			if mv := minValueExpr.FindStringSubmatch(m[2]); mv != nil {
				minValue = mv[1]
			}
			if mv := maxValueExpr.FindStringSubmatch(m[2]); mv != nil {
				maxValue = mv[1]
			}
			return ResolvedLogic{Kind: KindRangeCheck, Resolution: ResolutionExact, Column: column,
				MinValue: minValue, MaxValue: maxValue,
				ValidLabel: "Within Range", InvalidLabel: "Out of Range"}
		}
		if HasColumn(c.schema, sourceTable, "amount") {
			c.logger.Warn("range-check column not found, falling back to non-negative amount check",
				"logic", logic, "source_table", sourceTable, "column", column)
			return ResolvedLogic{Kind: KindRangeCheck, Resolution: ResolutionFallback, Column: "amount",
				MinValue: "0", ValidLabel: "Valid Amount", InvalidLabel: "Invalid Amount"}
		}
		c.logger.Warn("range check not resolvable, falling back to literal",
			"logic", logic, "source_table", sourceTable)
		return ResolvedLogic{Kind: KindLiteral, Resolution: ResolutionFallback, Literal: "Within Range"}
	}

	// 7. The whole string is a known column: exact passthrough.
	if columns, ok := c.schema.Columns(sourceTable); ok {
		for _, column := range columns {
			if strings.EqualFold(logic, column) {
				return ResolvedLogic{Kind: KindPassthrough, Resolution: ResolutionExact, Column: column}
			}
		}

		// 8. A known column appears as a substring: best-effort passthrough.
		lower := strings.ToLower(logic)
		for _, column := range columns {
			if strings.Contains(lower, strings.ToLower(column)) {
				c.logger.Warn("logic not recognized, passing through embedded column",
					"logic", logic, "source_table", sourceTable, "column", column)
				return ResolvedLogic{Kind: KindPassthrough, Resolution: ResolutionFallback, Column: column}
			}
		}
	}

	// 9. Nothing matched: constant fragment so the comparison still executes
	// and one malformed scenario never aborts the batch.
	c.logger.Warn("logic not recognized, falling back to constant",
		"logic", logic, "source_table", sourceTable)
	return ResolvedLogic{Kind: KindLiteral, Resolution: ResolutionFallback, Literal: 1}
}

// ClassifyScenario resolves a scenario's derivation logic, routing scenarios
// that declare a reference table to the lookup variant. A reference
// declaration without a target table or reference join key cannot be
// compared, so it falls back to plain logic classification.
func (c *LogicClassifier) ClassifyScenario(scenario *Scenario) ResolvedLogic {
	if scenario.ReferenceTable != "" && scenario.TargetTable != "" && strings.TrimSpace(scenario.ReferenceJoinKey) != "" {
		return ResolvedLogic{
			Kind:       KindReferenceLookup,
			Resolution: ResolutionExact,
			Reference: &ReferenceLookup{
				Table:        scenario.ReferenceTable,
				JoinKeys:     ParseJoinKeys(scenario.ReferenceJoinKey),
				LookupColumn: scenario.ReferenceLookupColumn,
				ReturnColumn: scenario.ReferenceReturnColumn,
			},
		}
	}

	return c.Classify(scenario.DerivationLogic, scenario.SourceTable)
}

func (c *LogicClassifier) allKnown(table string, columns []string) bool {
	for _, column := range columns {
		if !HasColumn(c.schema, table, column) {
			return false
		}
	}
	return len(columns) > 0
}

// unknownColumnTokens returns the identifier tokens of an expression that
// are neither SQL keywords, numbers, nor known columns of the table.
func (c *LogicClassifier) unknownColumnTokens(expr, table string) []string {
	stripped := quotedExpr.ReplaceAllString(expr, "")

	var unknown []string
	seen := map[string]bool{}
	for _, token := range identifierExpr.FindAllString(stripped, -1) {
		lower := strings.ToLower(token)
		if sqlKeywords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		if !HasColumn(c.schema, table, lower) {
			unknown = append(unknown, lower)
		}
	}
	return unknown
}

// splitConcatArgs splits CONCAT arguments on commas outside quotes,
// returning the column operands and the first quoted separator literal.
func splitConcatArgs(args string) (columns []string, separator string) {
	var parts []string
	depth := 0
	inQuote := rune(0)
	current := strings.Builder{}

	for _, r := range args {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			inQuote = r
			current.WriteRune(r)
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			current.WriteRune(r)
		case r == ',' && depth == 0:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part[0] == '\'' || part[0] == '"' {
			if separator == "" {
				separator = strings.Trim(part, `'"`)
			}
			continue
		}
		columns = append(columns, strings.ToLower(part))
	}
	return columns, separator
}
