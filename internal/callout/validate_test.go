package callout

import (
	"errors"
	"testing"

	"github.com/calloutkit/calloutbot/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func TestValidateAnswer_Number(t *testing.T) {
	component := &models.CalloutComponent{
		Key:  "age",
		Type: models.ComponentTypeNumber,
		Validate: &models.ComponentValidate{
			Min: floatPtr(0),
			Max: floatPtr(120),
		},
	}

	cases := []struct {
		answer any
		want   bool
	}{
		{42.0, true},
		{0.0, true},
		{-1.0, false},
		{200.0, false},
		{"42", false},
	}
	for _, tc := range cases {
		got, err := ValidateAnswer(component, tc.answer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Errorf("ValidateAnswer(number, %v) = %v, want %v", tc.answer, got, tc.want)
		}
	}
}

func TestValidateAnswer_Selection(t *testing.T) {
	component := &models.CalloutComponent{
		Key:  "color",
		Type: models.ComponentTypeSelect,
		Values: []models.ComponentValue{
			{Value: "red", Label: "Red"},
			{Value: "blue", Label: "Blue"},
		},
	}

	if ok, _ := ValidateAnswer(component, "red"); !ok {
		t.Error("expected value match to validate")
	}
	if ok, _ := ValidateAnswer(component, "Blue"); !ok {
		t.Error("expected label match to validate")
	}
	if ok, _ := ValidateAnswer(component, "green"); ok {
		t.Error("expected unknown value to fail")
	}
}

func TestValidateAnswer_SelectBoxes(t *testing.T) {
	component := &models.CalloutComponent{
		Key:  "toppings",
		Type: models.ComponentTypeSelectBoxes,
		Values: []models.ComponentValue{
			{Value: "cheese", Label: "Cheese"},
			{Value: "olives", Label: "Olives"},
		},
	}

	if ok, _ := ValidateAnswer(component, map[string]bool{"cheese": true}); !ok {
		t.Error("expected chosen known value to validate")
	}
	if ok, _ := ValidateAnswer(component, map[string]bool{"anchovies": true}); ok {
		t.Error("expected unknown chosen value to fail")
	}
}

func TestValidateAnswer_RequiredText(t *testing.T) {
	required := &models.CalloutComponent{
		Key:      "name",
		Type:     models.ComponentTypeTextfield,
		Validate: &models.ComponentValidate{Required: true},
	}
	optional := &models.CalloutComponent{Key: "nickname", Type: models.ComponentTypeTextfield}

	if ok, _ := ValidateAnswer(required, "  "); ok {
		t.Error("expected blank answer on required field to fail")
	}
	if ok, _ := ValidateAnswer(optional, ""); !ok {
		t.Error("expected blank answer on optional field to pass")
	}
}

func TestValidateAnswer_Unsupported(t *testing.T) {
	component := &models.CalloutComponent{Key: "sig", Type: "signature"}
	_, err := ValidateAnswer(component, "x")
	if !errors.Is(err, models.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestParsedTypeFor(t *testing.T) {
	if pt, err := ParsedTypeFor(models.ComponentTypeContent); err != nil || pt != models.ParsedResponseTypeNone {
		t.Errorf("content -> (%v, %v)", pt, err)
	}
	if pt, err := ParsedTypeFor(models.ComponentTypeNumber); err != nil || pt != models.ParsedResponseTypeNumber {
		t.Errorf("number -> (%v, %v)", pt, err)
	}
	if _, err := ParsedTypeFor("datetime"); !errors.Is(err, models.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented for datetime, got %v", err)
	}
}
