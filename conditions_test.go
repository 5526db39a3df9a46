package reconcore

import (
	"reflect"
	"testing"
)

func TestParseBusinessConditions(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		expected  []BusinessCondition
		elseLabel string
	}{
		{
			name: "single condition with else",
			spec: "amount > 1000 THEN Premium; ELSE Standard",
			expected: []BusinessCondition{
				{If: "amount > 1000", Then: "Premium"},
			},
			elseLabel: "Standard",
		},
		{
			name: "multiple conditions",
			spec: "amount > 1000 THEN Premium; amount > 100 THEN Regular; ELSE Basic",
			expected: []BusinessCondition{
				{If: "amount > 1000", Then: "Premium"},
				{If: "amount > 100", Then: "Regular"},
			},
			elseLabel: "Basic",
		},
		{
			name: "lowercase keywords",
			spec: "status = 'active' then Live; else Dormant",
			expected: []BusinessCondition{
				{If: "status = 'active'", Then: "Live"},
			},
			elseLabel: "Dormant",
		},
		{
			name: "malformed segments are skipped",
			spec: "amount > 1000 THEN Premium; THEN orphan; just text; ELSE Standard",
			expected: []BusinessCondition{
				{If: "amount > 1000", Then: "Premium"},
			},
			elseLabel: "Standard",
		},
		{
			name:      "empty spec",
			spec:      "",
			expected:  nil,
			elseLabel: "",
		},
		{
			name:      "no else clause",
			spec:      "amount > 0 THEN Positive",
			expected:  []BusinessCondition{{If: "amount > 0", Then: "Positive"}},
			elseLabel: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conditions, elseLabel := ParseBusinessConditions(tt.spec)
			if !reflect.DeepEqual(conditions, tt.expected) {
				t.Errorf("conditions = %+v, expected %+v", conditions, tt.expected)
			}
			if elseLabel != tt.elseLabel {
				t.Errorf("elseLabel = %q, expected %q", elseLabel, tt.elseLabel)
			}
		})
	}
}

func TestParseHardcodedValues(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		expected map[string]string
	}{
		{
			name:     "plain pairs",
			spec:     "region=EU,currency=USD",
			expected: map[string]string{"region": "EU", "currency": "USD"},
		},
		{
			name:     "quoted values stripped",
			spec:     `region="EU", currency='USD'`,
			expected: map[string]string{"region": "EU", "currency": "USD"},
		},
		{
			name:     "segments without equals skipped",
			spec:     "region=EU,garbage,currency=USD",
			expected: map[string]string{"region": "EU", "currency": "USD"},
		},
		{
			name:     "empty spec yields empty map",
			spec:     "",
			expected: map[string]string{},
		},
		{
			name:     "empty key skipped",
			spec:     "=value,region=EU",
			expected: map[string]string{"region": "EU"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHardcodedValues(tt.spec)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseHardcodedValues(%q) = %v, expected %v", tt.spec, got, tt.expected)
			}
		})
	}
}
