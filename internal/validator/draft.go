// Package validator checks generated drafts before they are formatted and
// published: section completeness, citation integrity, reference bounds,
// and table well-formedness.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"papermill/internal/config"
	"papermill/internal/models"
	"papermill/pkg/textutil"
)

// ErrDraftInvalid is returned by ValidationResult.Err for a failed draft.
var ErrDraftInvalid = errors.New("draft failed validation")

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// ValidationError is one finding with enough context to locate it.
type ValidationError struct {
	Section string
	Field   string
	Value   string
	Message string
}

// ValidationStats summarizes what was checked.
type ValidationStats struct {
	Sections        int
	EmptySections   int
	Citations       int
	DanglingCites   int
	References      int
	TableRows       int
	MalformedRows   int
}

// ValidationResult aggregates findings for one draft.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// DraftValidator validates assembled drafts.
type DraftValidator struct {
	cfg    config.ValidationConfig
	strict bool
}

// NewDraftValidator creates a validator. In strict mode warnings are
// promoted to errors.
func NewDraftValidator(cfg config.ValidationConfig, strict bool) *DraftValidator {
	return &DraftValidator{cfg: cfg, strict: strict}
}

// Validate checks the draft against every configured rule.
func (v *DraftValidator) Validate(draft *models.Draft, requiredSections []string) *ValidationResult {
	result := &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
	}

	v.checkSections(draft, requiredSections, result)
	v.checkCitations(draft, result)
	v.checkReferences(draft, result)

	if v.cfg.CheckTableFormat {
		v.checkTables(draft, result)
	}

	if v.strict && len(result.Warnings) > 0 {
		for _, w := range result.Warnings {
			result.Errors = append(result.Errors, ValidationError{Message: w})
		}
		result.Warnings = nil
	}

	if len(result.Errors) > 0 {
		result.IsValid = false
	}

	return result
}

func (v *DraftValidator) checkSections(draft *models.Draft, required []string, result *ValidationResult) {
	byHeading := make(map[string]models.Section, len(draft.Sections))
	for _, s := range draft.Sections {
		byHeading[s.Heading] = s
		result.Stats.Sections++
	}

	for _, heading := range required {
		section, ok := byHeading[heading]
		if !ok {
			result.Errors = append(result.Errors, ValidationError{
				Section: heading,
				Message: fmt.Sprintf("required section %q is missing", heading),
			})
			continue
		}

		words := len(strings.Fields(section.Body))
		if words == 0 {
			result.Stats.EmptySections++
			result.Errors = append(result.Errors, ValidationError{
				Section: heading,
				Message: fmt.Sprintf("section %q is empty", heading),
			})
			continue
		}

		if v.cfg.MinSectionWords > 0 && words < v.cfg.MinSectionWords {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"section %q is short: %d words, expected at least %d",
				heading, words, v.cfg.MinSectionWords,
			))
		}
	}
}

func (v *DraftValidator) checkCitations(draft *models.Draft, result *ValidationResult) {
	if !v.cfg.CheckCitations {
		return
	}

	anyCited := false

	for _, section := range draft.Sections {
		for _, m := range citationPattern.FindAllStringSubmatch(section.Body, -1) {
			result.Stats.Citations++

			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 || n > len(draft.References) {
				result.Stats.DanglingCites++
				result.Errors = append(result.Errors, ValidationError{
					Section: section.Heading,
					Field:   "citation",
					Value:   m[0],
					Message: fmt.Sprintf("citation %s in %q does not resolve to a reference", m[0], section.Heading),
				})
				continue
			}

			anyCited = true
		}
	}

	if !anyCited && len(draft.References) > 0 {
		result.Warnings = append(result.Warnings, "no section cites any reference")
	}
}

func (v *DraftValidator) checkReferences(draft *models.Draft, result *ValidationResult) {
	result.Stats.References = len(draft.References)

	if v.cfg.MinReferences > 0 && len(draft.References) < v.cfg.MinReferences {
		result.Errors = append(result.Errors, ValidationError{
			Field: "references",
			Message: fmt.Sprintf(
				"too few references: got %d, expected at least %d",
				len(draft.References), v.cfg.MinReferences,
			),
		})
	}

	if v.cfg.MaxReferences > 0 && len(draft.References) > v.cfg.MaxReferences {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"unusually many references: got %d, expected at most %d",
			len(draft.References), v.cfg.MaxReferences,
		))
	}

	for _, r := range draft.References {
		if strings.TrimSpace(r.Title) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "references",
				Value:   r.PaperID,
				Message: fmt.Sprintf("reference [%d] has no title", r.Number),
			})
		}
	}
}

// checkTables verifies every pipe-delimited table has a consistent column
// count. Rows are matched against their table's header.
func (v *DraftValidator) checkTables(draft *models.Draft, result *ValidationResult) {
	for _, section := range draft.Sections {
		lines := strings.Split(section.Body, "\n")

		columns := 0
		for _, line := range lines {
			line = strings.TrimSpace(line)

			if !strings.HasPrefix(line, "|") {
				columns = 0
				continue
			}

			cells := countCells(line)

			if columns == 0 {
				columns = cells
				continue
			}

			// Separator rows count like data rows.
			result.Stats.TableRows++

			if cells != columns {
				result.Stats.MalformedRows++
				result.Errors = append(result.Errors, ValidationError{
					Section: section.Heading,
					Field:   "table",
					Value:   textutil.Truncate(line, 60),
					Message: fmt.Sprintf(
						"table row in %q has %d columns, header has %d",
						section.Heading, cells, columns,
					),
				})
			}
		}
	}
}

func countCells(row string) int {
	cells := strings.Split(strings.Trim(row, "|"), "|")
	return len(cells)
}

// Err returns nil for a valid result, ErrDraftInvalid otherwise.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}

	return fmt.Errorf("%w: %d errors", ErrDraftInvalid, len(r.Errors))
}

// String returns a one-line summary of the result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf(
		"%s | Sections: %d | Citations: %d | Dangling: %d | References: %d | Warnings: %d",
		status,
		r.Stats.Sections,
		r.Stats.Citations,
		r.Stats.DanglingCites,
		r.Stats.References,
		len(r.Warnings),
	)
}

// PrintErrors prints findings in readable form.
func (r *ValidationResult) PrintErrors() {
	if len(r.Errors) == 0 {
		return
	}

	fmt.Println("❌ Validation Errors:")

	for _, err := range r.Errors {
		if err.Section != "" {
			fmt.Printf("  [%s] %s\n", err.Section, err.Message)
		} else {
			fmt.Printf("  %s\n", err.Message)
		}

		if err.Value != "" {
			fmt.Printf("    Found: %q\n", err.Value)
		}
	}
}

// PrintWarnings prints warnings.
func (r *ValidationResult) PrintWarnings() {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Println("⚠️  Validation Warnings:")

	for _, warn := range r.Warnings {
		fmt.Printf("  %s\n", warn)
	}
}
