package validator

import (
	"errors"
	"strings"
	"testing"

	"papermill/internal/config"
	"papermill/internal/models"
)

func testValidationConfig() config.ValidationConfig {
	return config.ValidationConfig{
		MinReferences:    1,
		MaxReferences:    5,
		MinSectionWords:  3,
		CheckCitations:   true,
		CheckTableFormat: true,
	}
}

func validDraft() *models.Draft {
	return &models.Draft{
		Topic: "Forecasting",
		Sections: []models.Section{
			{Heading: "Abstract", Body: "A survey of forecasting models and their accuracy."},
			{Heading: "Results", Body: "The baselines behave as reported in [1]."},
		},
		References: []models.Reference{
			{Number: 1, PaperID: "2401.00001", Title: "Forecasting Study"},
		},
	}
}

func TestValidate_ValidDraft(t *testing.T) {
	v := NewDraftValidator(testValidationConfig(), false)

	result := v.Validate(validDraft(), []string{"Abstract", "Results"})

	if !result.IsValid {
		t.Fatalf("expected valid draft, got errors: %+v", result.Errors)
	}

	if err := result.Err(); err != nil {
		t.Errorf("expected nil Err, got %v", err)
	}

	if result.Stats.Citations != 1 || result.Stats.DanglingCites != 0 {
		t.Errorf("unexpected citation stats: %+v", result.Stats)
	}
}

func TestValidate_MissingSection(t *testing.T) {
	v := NewDraftValidator(testValidationConfig(), false)

	result := v.Validate(validDraft(), []string{"Abstract", "Results", "Conclusion"})

	if result.IsValid {
		t.Fatal("expected missing section to fail validation")
	}

	if !errors.Is(result.Err(), ErrDraftInvalid) {
		t.Errorf("expected ErrDraftInvalid, got %v", result.Err())
	}
}

func TestValidate_EmptySection(t *testing.T) {
	v := NewDraftValidator(testValidationConfig(), false)

	draft := validDraft()
	draft.Sections[0].Body = "   "

	result := v.Validate(draft, []string{"Abstract"})

	if result.IsValid {
		t.Fatal("expected empty section to fail validation")
	}

	if result.Stats.EmptySections != 1 {
		t.Errorf("expected 1 empty section, got %d", result.Stats.EmptySections)
	}
}

func TestValidate_DanglingCitation(t *testing.T) {
	v := NewDraftValidator(testValidationConfig(), false)

	draft := validDraft()
	draft.Sections[1].Body = "A claim from [1] and a dangling one from [7]."

	result := v.Validate(draft, []string{"Abstract", "Results"})

	if result.IsValid {
		t.Fatal("expected dangling citation to fail validation")
	}

	if result.Stats.DanglingCites != 1 {
		t.Errorf("expected 1 dangling citation, got %d", result.Stats.DanglingCites)
	}

	found := false
	for _, e := range result.Errors {
		if e.Value == "[7]" {
			found = true
		}
	}
	if !found {
		t.Error("expected an error naming the dangling citation [7]")
	}
}

func TestValidate_ReferenceBounds(t *testing.T) {
	v := NewDraftValidator(testValidationConfig(), false)

	draft := validDraft()
	draft.References = nil
	draft.Sections[1].Body = "No citations."

	result := v.Validate(draft, []string{"Abstract"})

	if result.IsValid {
		t.Fatal("expected too few references to fail validation")
	}

	// Over the maximum only warns.
	draft = validDraft()
	for i := 2; i <= 7; i++ {
		draft.References = append(draft.References, models.Reference{Number: i, PaperID: "x", Title: "T"})
	}

	result = v.Validate(draft, []string{"Abstract", "Results"})

	if !result.IsValid {
		t.Fatalf("expected many references to only warn, got errors: %+v", result.Errors)
	}

	if len(result.Warnings) == 0 {
		t.Error("expected a warning about reference count")
	}
}

func TestValidate_MalformedTable(t *testing.T) {
	v := NewDraftValidator(testValidationConfig(), false)

	draft := validDraft()
	draft.Sections[1].Body = strings.Join([]string{
		"The scores [1]:",
		"",
		"| Model | MAE | RMSE |",
		"| --- | --- | --- |",
		"| naive | 1.0 |",
	}, "\n")

	result := v.Validate(draft, []string{"Abstract", "Results"})

	if result.IsValid {
		t.Fatal("expected malformed table row to fail validation")
	}

	if result.Stats.MalformedRows != 1 {
		t.Errorf("expected 1 malformed row, got %d", result.Stats.MalformedRows)
	}
}

func TestValidate_StrictPromotesWarnings(t *testing.T) {
	draft := validDraft()
	draft.Sections[0].Body = "Too short."

	relaxed := NewDraftValidator(testValidationConfig(), false)
	if result := relaxed.Validate(draft, []string{"Abstract", "Results"}); !result.IsValid {
		t.Fatalf("expected short section to only warn, got errors: %+v", result.Errors)
	}

	strict := NewDraftValidator(testValidationConfig(), true)
	if result := strict.Validate(draft, []string{"Abstract", "Results"}); result.IsValid {
		t.Fatal("expected strict mode to fail on warnings")
	}
}

func TestValidationResult_String(t *testing.T) {
	v := NewDraftValidator(testValidationConfig(), false)

	result := v.Validate(validDraft(), []string{"Abstract", "Results"})

	s := result.String()
	if !strings.Contains(s, "✅ VALID") {
		t.Errorf("unexpected summary: %q", s)
	}
}
