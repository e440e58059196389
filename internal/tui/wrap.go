package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/subcrack/internal/alphabet"
	"github.com/verte-zerg/subcrack/internal/bigram"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes styles a decryption. With a reference text every
// letter is marked right or wrong; without one, letters that take part in
// a bigram the model has seen are highlighted.
func buildStyledRunes(plain, reference []rune, table *bigram.Table) []styledRune {
	out := make([]styledRune, 0, len(plain))
	for i, r := range plain {
		style := unknownStyle
		switch {
		case r == ' ':
		case reference != nil:
			if i < len(reference) && reference[i] == r {
				style = correctStyle
			} else {
				style = incorrectStyle
			}
		case knownAt(plain, i, table):
			style = knownStyle
		}
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

func knownAt(plain []rune, i int, table *bigram.Table) bool {
	if table == nil {
		return false
	}
	cur := alphabet.Index(plain[i])
	if i > 0 && table.Has(alphabet.Index(plain[i-1]), cur) {
		return true
	}
	return i+1 < len(plain) && table.Has(cur, alphabet.Index(plain[i+1]))
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
