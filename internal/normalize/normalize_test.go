package normalize

import (
	"reflect"
	"testing"

	"github.com/gua123/sql-export/internal/source"
)

func cols(kinds ...source.Kind) []source.Column {
	cs := make([]source.Column, len(kinds))
	for i, k := range kinds {
		cs[i] = source.Column{Kind: k, Ordinal: i}
	}
	return cs
}

/*
TestApply_TableDriven verifies the substitution rules:

  - nil in a string-like column becomes "",
  - nil in a numeric-like column becomes int64(0),
  - nil in any other column follows the configured policy,
  - present values pass through untouched (except the 0x1F scrub).
*/
func TestApply_TableDriven(t *testing.T) {
	tests := []struct {
		name   string
		kinds  []source.Kind
		policy Policy
		in     []any
		want   []any
	}{
		{
			name:  "absent_string_and_number",
			kinds: []source.Kind{source.KindNumeric, source.KindText, source.KindNumeric},
			in:    []any{int64(7), nil, nil},
			want:  []any{int64(7), "", int64(0)},
		},
		{
			name:  "other_kind_keeps_nil_by_default",
			kinds: []source.Kind{source.KindOther},
			in:    []any{nil},
			want:  []any{nil},
		},
		{
			name:   "other_kind_empty_policy",
			kinds:  []source.Kind{source.KindOther},
			policy: Policy{Other: OtherEmpty},
			in:     []any{nil},
			want:   []any{""},
		},
		{
			name:  "present_values_untouched",
			kinds: []source.Kind{source.KindText, source.KindNumeric},
			in:    []any{"hello", 3.25},
			want:  []any{"hello", 3.25},
		},
		{
			name:  "unit_separator_scrubbed",
			kinds: []source.Kind{source.KindText},
			in:    []any{"ab\x1fcd"},
			want:  []any{"abcd"},
		},
		{
			name:  "empty_row",
			kinds: []source.Kind{source.KindText},
			in:    []any{},
			want:  []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(cols(tt.kinds...), tt.policy)
			got := n.Apply(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply = %#v, want %#v", got, tt.want)
			}
		})
	}
}

// TestApply_PerColumnNotPerRow pins the rule that substitution follows the
// column's kind, not anything about the row as a whole.
func TestApply_PerColumnNotPerRow(t *testing.T) {
	n := New(cols(source.KindText, source.KindNumeric, source.KindText, source.KindNumeric), Policy{})
	got := n.Apply([]any{nil, nil, nil, nil})
	want := []any{"", int64(0), "", int64(0)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %#v, want %#v", got, want)
	}
}

// TestApply_Idempotent verifies that normalizing an already-normalized row
// changes nothing.
func TestApply_Idempotent(t *testing.T) {
	n := New(cols(source.KindText, source.KindNumeric, source.KindOther), Policy{})
	row := []any{nil, nil, nil}
	once := append([]any(nil), n.Apply(row)...)
	twice := n.Apply(once)
	if !reflect.DeepEqual([]any(twice), []any{"", int64(0), nil}) {
		t.Errorf("second Apply = %#v", twice)
	}
}

// TestApply_InPlace verifies the row is mutated rather than copied.
func TestApply_InPlace(t *testing.T) {
	n := New(cols(source.KindText), Policy{})
	row := []any{nil}
	got := n.Apply(row)
	if row[0] != "" {
		t.Error("input row was not mutated")
	}
	if len(got) != 1 || got[0] != "" {
		t.Errorf("returned row = %#v", got)
	}
}

func TestOtherPolicyFromString(t *testing.T) {
	if OtherPolicyFromString("empty") != OtherEmpty {
		t.Error("empty not mapped")
	}
	if OtherPolicyFromString("EMPTY") != OtherEmpty {
		t.Error("case-insensitive mapping failed")
	}
	if OtherPolicyFromString("keep") != OtherKeep || OtherPolicyFromString("") != OtherKeep {
		t.Error("keep/default not mapped")
	}
}
