package pipeline

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// Placeholder is the marker substituted into the prose channel wherever a
// math span was removed.
const Placeholder = "⟨EQ⟩"

// mathSpan matches display math ($$...$$), inline math ($...$), bracket
// display math (\[...\]) and math-bearing environments, non-greedily across
// line boundaries. The closing environment tag is matched with a
// backreference, which the stdlib RE2 engine cannot express; regexp2 keeps
// the original semantics.
var mathSpan = regexp2.MustCompile(
	`\$\$.*?\$\$|\$.*?\$|\\\[.*?\\\]|\\begin\{(equation\*?|align\*?|tikzpicture)\}.*?\\end\{\1\}`,
	regexp2.Singleline,
)

// SplitLatex separates math spans from surrounding prose. It returns the
// prose with every math span replaced by the placeholder token, and the
// newline-joined math spans in original order. Both are trimmed. The
// function is pure and never fails: text without math comes back as
// (trimmed text, "").
func SplitLatex(text string) (prose string, latex string) {
	// regexp2 indexes are rune based.
	runes := []rune(text)

	var proseBuilder strings.Builder
	var spans []string
	last := 0

	m, _ := mathSpan.FindRunesMatch(runes)
	for m != nil {
		proseBuilder.WriteString(string(runes[last:m.Index]))
		proseBuilder.WriteString(" " + Placeholder + " ")
		spans = append(spans, m.String())
		last = m.Index + m.Length
		m, _ = mathSpan.FindNextMatch(m)
	}
	proseBuilder.WriteString(string(runes[last:]))

	return strings.TrimSpace(proseBuilder.String()), strings.TrimSpace(strings.Join(spans, "\n"))
}
