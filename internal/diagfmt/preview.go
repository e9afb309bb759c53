package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"

	"brackets/internal/source"
)

type excerptLine struct {
	num  uint32
	text string
}

// lineCount не считает пустую строку после завершающего перевода строки.
func lineCount(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.LineIdx) + 1)
	if err != nil {
		panic(fmt.Errorf("line count overflow: %w", err))
	}
	if len(f.LineIdx) > 0 && int(f.LineIdx[len(f.LineIdx)-1]) == len(f.Content)-1 {
		n--
	}
	return n
}

// buildExcerpt returns the lines from..to widened by context on both sides.
func buildExcerpt(f *source.File, from, to uint32, context int8) []excerptLine {
	if f == nil || from == 0 {
		return nil
	}
	to = max(to, from)
	ctx := uint32(max(context, 0))
	first := uint32(1)
	if from > ctx {
		first = from - ctx
	}
	last := min(to+ctx, lineCount(f))
	out := make([]excerptLine, 0, last-first+1)
	for n := first; n <= last; n++ {
		out = append(out, excerptLine{num: n, text: f.GetLine(n)})
	}
	return out
}

// underline builds the ^~~~ marker under text for the byte columns
// [startCol, endCol), both 1-based. Display width accounts for wide runes
// so the marker lines up under non-ASCII source.
func underline(text string, startCol, endCol uint32) string {
	start := clampCol(text, startCol)
	end := clampCol(text, endCol)
	pad := runewidth.StringWidth(strings.ReplaceAll(text[:start], "\t", " "))
	width := max(runewidth.StringWidth(text[start:end]), 1)
	return strings.Repeat(" ", pad) + "^" + strings.Repeat("~", width-1)
}

func clampCol(text string, col uint32) int {
	if col == 0 {
		return 0
	}
	return min(int(col-1), len(text))
}

func clip(text string, width uint8) string {
	if width == 0 || runewidth.StringWidth(text) <= int(width) {
		return text
	}
	return runewidth.Truncate(text, int(width), "...")
}
