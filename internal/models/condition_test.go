package models

import (
	"errors"
	"testing"
)

func TestNewTextCondition_MultipleRequiresDoneTexts(t *testing.T) {
	_, err := NewTextCondition(Collect{Multiple: true})
	if err == nil {
		t.Fatal("expected configuration error for multiple without done texts")
	}
	if !errors.Is(err, ErrIllegalConfiguration) {
		t.Errorf("expected ErrIllegalConfiguration, got %v", err)
	}

	cond, err := NewTextCondition(Collect{Multiple: true, DoneTexts: []string{"done"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cond.Type != ReplayText || !cond.Multiple {
		t.Errorf("unexpected condition: %+v", cond)
	}
}

func TestNewConditions_InvariantAcrossVariants(t *testing.T) {
	cases := []struct {
		name    string
		build   func(Collect) (ReplayCondition, error)
		collect Collect
		wantErr bool
	}{
		{"any multiple without done", func(c Collect) (ReplayCondition, error) { return NewAnyCondition(c) }, Collect{Multiple: true}, true},
		{"any multiple with done", func(c Collect) (ReplayCondition, error) { return NewAnyCondition(c) }, Collect{Multiple: true, DoneTexts: []string{"fertig"}}, false},
		{"file multiple without done", func(c Collect) (ReplayCondition, error) { return NewFileCondition(c, "image/png") }, Collect{Multiple: true}, true},
		{"file single", func(c Collect) (ReplayCondition, error) { return NewFileCondition(c) }, Collect{}, false},
		{"selection multiple with done", func(c Collect) (ReplayCondition, error) {
			return NewSelectionCondition(c, []SelectionOption{{Value: "a", Label: "A"}})
		}, Collect{Multiple: true, DoneTexts: []string{"done"}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build(tc.collect)
			if tc.wantErr && !errors.Is(err, ErrIllegalConfiguration) {
				t.Errorf("expected ErrIllegalConfiguration, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewSelectionCondition_RequiresOptions(t *testing.T) {
	if _, err := NewSelectionCondition(Collect{}, nil); !errors.Is(err, ErrIllegalConfiguration) {
		t.Errorf("expected ErrIllegalConfiguration for empty options, got %v", err)
	}
}

func TestNewComponentCondition_RequiresComponent(t *testing.T) {
	if _, err := NewComponentCondition(Collect{}, nil); !errors.Is(err, ErrIllegalConfiguration) {
		t.Errorf("expected ErrIllegalConfiguration for nil component, got %v", err)
	}
}

func TestSplitGroupKey(t *testing.T) {
	cases := []struct {
		key       string
		slide     string
		component string
		ok        bool
	}{
		{"s1-slide:q1", "s1", "q1", true},
		{"s2-slide:nested-slide:q", "s2", "nested-slide:q", true},
		{"no-separator", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		slide, component, ok := SplitGroupKey(tc.key)
		if ok != tc.ok || slide != tc.slide || component != tc.component {
			t.Errorf("SplitGroupKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.key, slide, component, ok, tc.slide, tc.component, tc.ok)
		}
	}
}

func TestComponentGroupKey_RoundTrip(t *testing.T) {
	key := ComponentGroupKey("intro", "favorite-color")
	slide, component, ok := SplitGroupKey(key)
	if !ok || slide != "intro" || component != "favorite-color" {
		t.Errorf("round trip failed: (%q, %q, %v)", slide, component, ok)
	}
}
