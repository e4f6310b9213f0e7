package pipeline

import (
	"iter"

	"github.com/siherrmann/texgraph/model"
)

// WindowChunker partitions page text into overlapping, bounded-size windows.
// Token budgets are converted to characters with the fixed heuristic ratio;
// the window is floored so degenerate configurations cannot produce zero or
// negative steps.
type WindowChunker struct {
	windowChars  int
	overlapChars int
}

// NewWindowChunker creates a chunker from token-equivalent configuration.
func NewWindowChunker(config model.ChunkConfig) *WindowChunker {
	window := config.TargetTokens * model.CharsPerToken
	if window < model.MinWindowChars {
		window = model.MinWindowChars
	}

	overlap := config.OverlapTokens * model.CharsPerToken
	if overlap < 0 {
		overlap = 0
	}

	return &WindowChunker{
		windowChars:  window,
		overlapChars: overlap,
	}
}

// Windows returns a lazy, restartable sequence of (start offset, substring)
// windows over text. The first window starts at offset 0, each subsequent
// start advances by window - overlap clamped to at least 1 so offsets strictly
// increase, and the sequence terminates right after the window that reaches
// the end of the text. Every byte of the input is covered by at least one
// window. Empty text yields no windows.
func (c *WindowChunker) Windows(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		n := len(text)

		step := c.windowChars - c.overlapChars
		if step < 1 {
			step = 1
		}

		for i := 0; i < n; i += step {
			j := i + c.windowChars
			if j > n {
				j = n
			}
			if !yield(i, text[i:j]) {
				return
			}
			if j == n {
				return
			}
		}
	}
}
