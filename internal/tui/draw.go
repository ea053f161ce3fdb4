package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

type styles struct {
	text   tcell.Style
	gutter tcell.Style
	match  tcell.Style
	status tcell.Style
	fail   tcell.Style
}

func defaultStyles() styles {
	return styles{
		text:   tcell.StyleDefault,
		gutter: tcell.StyleDefault.Foreground(tcell.ColorGray),
		match:  tcell.StyleDefault.Reverse(true),
		status: tcell.StyleDefault.Reverse(true),
		fail:   tcell.StyleDefault.Reverse(true).Foreground(tcell.ColorRed),
	}
}

// tabWidth is the number of columns a tab advances to.
const tabWidth = 4

// Draw paints the visible lines and the status line.
func (a *App) Draw() {
	a.screen.Clear()
	w, h := a.screen.Size()
	rows := max(h-1, 0)

	gutter := len(fmt.Sprint(a.doc.Len())) + 1
	for row := 0; row < rows; row++ {
		line := a.top + row
		if line >= a.doc.Len() {
			break
		}
		a.put(0, row, w, fmt.Sprintf("%*d ", gutter-1, line+1), a.styles.gutter)

		from, to := -1, -1
		if a.found && !a.failed && a.hit.Line == line {
			from, to = a.hit.Offset, a.hit.Offset+a.hit.Length
		}
		a.putLine(gutter, row, w, a.doc.Line(line), from, to)
	}

	if h > 0 {
		style := a.styles.status
		if a.failed || a.errMsg != "" {
			style = a.styles.fail
		}
		for x := 0; x < w; x++ {
			a.screen.SetContent(x, h-1, ' ', nil, style)
		}
		a.put(0, h-1, w, a.Status(), style)
	}
	a.screen.Show()
}

// put draws s from column x and returns the column after it.
func (a *App) put(x, y, width int, s string, style tcell.Style) int {
	g := uniseg.NewGraphemes(s)
	for g.Next() && x < width {
		x = a.cell(x, y, g.Runes(), g.Width(), style)
	}
	return x
}

// putLine draws a document line, highlighting the byte span [from, to).
func (a *App) putLine(x, y, width int, text string, from, to int) {
	start := x
	g := uniseg.NewGraphemes(text)
	for g.Next() && x < width {
		style := a.styles.text
		b, _ := g.Positions()
		if (b >= from && b < to) || (from == to && b == from) {
			style = a.styles.match
		}
		if g.Str() == "\t" {
			next := start + ((x-start)/tabWidth+1)*tabWidth
			for ; x < next && x < width; x++ {
				a.screen.SetContent(x, y, ' ', nil, style)
			}
			continue
		}
		x = a.cell(x, y, g.Runes(), g.Width(), style)
	}
	// An empty match shows as a highlighted cell at its position.
	if from >= 0 && from == to && from == len(text) && x < width {
		a.screen.SetContent(x, y, ' ', nil, a.styles.match)
	}
}

func (a *App) cell(x, y int, runes []rune, width int, style tcell.Style) int {
	if len(runes) == 0 {
		return x
	}
	a.screen.SetContent(x, y, runes[0], runes[1:], style)
	return x + max(width, 1)
}
