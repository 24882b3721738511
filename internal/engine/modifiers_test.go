package engine

import (
	"reflect"
	"strings"
	"testing"
)

func TestDetermineModifiers(t *testing.T) {
	tests := []struct {
		name          string
		circumstances []string
		want          []string
		wantIgnored   []string
	}{
		{"none", nil, []string{}, nil},
		{"em with procedure", []string{"em_with_procedure"}, []string{"25"}, nil},
		{"telehealth", []string{"telehealth"}, []string{"95"}, nil},
		{"table order wins", []string{"right_side", "bilateral", "telehealth", "professional_component"}, []string{"95", "26", "50", "RT"}, nil},
		{"components", []string{"technical_component", "professional_component"}, []string{"26", "TC"}, nil},
		{"duplicates collapse", []string{"left_side", "LEFT_SIDE ", "left_side"}, []string{"LT"}, nil},
		{"unknown ignored", []string{"after_hours", "em_with_procedure", "after_hours"}, []string{"25"}, []string{"after_hours"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, ignored := DetermineModifiers("99213", tt.circumstances)
			if got := modifierCodes(applied); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("modifiers = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(ignored, tt.wantIgnored) {
				t.Errorf("ignored = %v, want %v", ignored, tt.wantIgnored)
			}
			for _, m := range applied {
				if !strings.Contains(m.Rationale, "99213") {
					t.Errorf("rationale for %s does not name the code: %q", m.Code, m.Rationale)
				}
			}
		})
	}
}

func TestModifierRationale_NamesIgnoredTags(t *testing.T) {
	applied, ignored := DetermineModifiers("29881", []string{"bilateral", "weekend"})
	r := modifierRationale("29881", applied, ignored)
	if !strings.Contains(r, "bilateral procedure") || !strings.Contains(r, "weekend") {
		t.Errorf("unexpected rationale: %q", r)
	}
	if got := modifierOutcome(applied); got != "50" {
		t.Errorf("outcome = %q", got)
	}
	if got := modifierOutcome(nil); got != "none" {
		t.Errorf("outcome for none = %q", got)
	}
}
