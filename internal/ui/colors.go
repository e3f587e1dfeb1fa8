package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/foodgram/internal/models"
)

var styles = NewPalette("#E26C2D", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	badge lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		badge: lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#1A1A1A")),
	}
}

// Tags renders each tag as a badge filled with the tag's own color.
func (p *Palette) Tags(tags []*models.Tag) string {
	badges := make([]string, len(tags))
	for i, t := range tags {
		badges[i] = p.badge.Background(lipgloss.Color(t.Color())).Render(t.Name())
	}
	return strings.Join(badges, " ")
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
