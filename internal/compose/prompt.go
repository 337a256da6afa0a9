package compose

import (
	"fmt"
	"strings"

	"papermill/pkg/textutil"
)

// Excerpt is a knowledge-base chunk presented to the model as a numbered
// source. Number is the global reference number the section must cite.
type Excerpt struct {
	Number int
	Title  string
	Text   string
}

// sectionInstructions adjusts the register per section heading. Unknown
// headings fall through to a generic instruction.
var sectionInstructions = map[string]string{
	"Abstract":     "Write a single dense paragraph of 120-180 words summarizing motivation, approach, and findings. Do not use citations or headings.",
	"Introduction": "Motivate the problem, state the scope of the survey, and outline the structure. Cite sources where claims are drawn from them.",
	"Related Work": "Group the sources by approach and contrast them. Every claim about a source must carry its citation.",
	"Methodology":  "Describe the data preparation, windowing, train/test protocol, and models discussed by the sources in technical detail.",
	"Results":      "Report the quantitative findings from the sources. Present comparisons concretely, with citations.",
	"Discussion":   "Interpret the results, note limitations, and identify open problems raised by the sources.",
	"Conclusion":   "Summarize the survey's findings in one or two paragraphs. No new claims.",
}

const genericInstruction = "Write the section in formal academic prose grounded in the sources, citing them where used."

// BuildSectionPrompt assembles the generation prompt for one section: the
// numbered source excerpts, the topic, and the section instruction. The
// model is told to cite sources as bracketed numbers so citations can be
// checked against the reference list afterwards.
func BuildSectionPrompt(topic, section string, excerpts []Excerpt) string {
	var b strings.Builder

	b.WriteString("You are writing one section of an academic survey paper.\n\n")
	fmt.Fprintf(&b, "Topic: %s\nSection: %s\n\n", topic, section)

	if len(excerpts) > 0 {
		b.WriteString("Source excerpts:\n\n")

		for _, e := range excerpts {
			fmt.Fprintf(&b, "[Source ID: %d] %s\n%s\n\n", e.Number, e.Title, textutil.NormalizeWhitespace(e.Text))
		}

		b.WriteString("Cite a source inline as its bracketed number, e.g. [1]. ")
		b.WriteString("Only cite the source IDs listed above.\n\n")
	}

	instruction, ok := sectionInstructions[section]
	if !ok {
		instruction = genericInstruction
	}

	fmt.Fprintf(&b, "Instruction: %s\n\nWrite only the section body, without repeating the heading.", instruction)

	return b.String()
}
