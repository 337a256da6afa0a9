package render

import (
	"strings"
	"testing"

	"papermill/pkg/metadata"
)

func TestToHTML(t *testing.T) {
	md := strings.Join([]string{
		"# A Survey",
		"",
		"## Results",
		"",
		"Prose with a citation [1].",
		"",
		"| Model | MAE |",
		"| --- | --- |",
		"| naive | 1.0 |",
	}, "\n")

	got, err := ToHTML("A Survey", md)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}

	for _, want := range []string{
		"<title>A Survey</title>",
		"<h1",
		"<h2",
		"<table>",
		"<td>naive</td>",
		"text-align: justify",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestToHTML_StripsMetadataBlock(t *testing.T) {
	signed := metadata.Sign("# Title\n\nBody text.", "m", true)

	got, err := ToHTML("Title", signed)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}

	if strings.Contains(got, metadata.TagStart) {
		t.Error("metadata block leaked into the HTML")
	}
}
