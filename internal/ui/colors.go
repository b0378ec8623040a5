package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytplaylists/internal/models"
)

const (
	red    = lipgloss.Color("#FF0000")
	green  = lipgloss.Color("#04B575")
	pink   = lipgloss.Color("#FF5F87")
	orange = lipgloss.Color("#FFA500")
	gold   = lipgloss.Color("#FFD700")
	grey   = lipgloss.Color("#626262")
)

var theme = newPlayerTheme()

// playerTheme holds the styles of the player screens.
type playerTheme struct {
	heading    lipgloss.Style
	nowPlaying lipgloss.Style
	idle       lipgloss.Style
	degraded   lipgloss.Style
	failure    lipgloss.Style
	hint       lipgloss.Style

	// ratings is indexed by rating bucket: unrated, low, mid, high.
	ratings [4]lipgloss.Style
}

func newPlayerTheme() playerTheme {
	return playerTheme{
		heading:    lipgloss.NewStyle().Foreground(red).Bold(true).MarginBottom(1),
		nowPlaying: lipgloss.NewStyle().Foreground(green).Bold(true),
		idle:       lipgloss.NewStyle().Foreground(grey),
		degraded:   lipgloss.NewStyle().Foreground(orange),
		failure:    lipgloss.NewStyle().Foreground(pink).Bold(true),
		hint:       lipgloss.NewStyle().Foreground(grey).Italic(true),
		ratings: [4]lipgloss.Style{
			lipgloss.NewStyle().Foreground(grey).Italic(true),
			lipgloss.NewStyle().Foreground(pink),
			lipgloss.NewStyle().Foreground(orange),
			lipgloss.NewStyle().Foreground(gold).Bold(true),
		},
	}
}

// rating renders a song's rating, coloured by how high it is.
func (t playerTheme) rating(r int) string {
	switch {
	case r < models.MinRating:
		return t.ratings[0].Render("unrated")
	case r <= 4:
		return t.ratings[1].Render(fmt.Sprintf("★ %d/%d", r, models.MaxRating))
	case r <= 7:
		return t.ratings[2].Render(fmt.Sprintf("★ %d/%d", r, models.MaxRating))
	default:
		return t.ratings[3].Render(fmt.Sprintf("★ %d/%d", r, models.MaxRating))
	}
}

// songDelegate draws the song list with the selection in the player's accent colour.
func (t playerTheme) songDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(green).BorderLeftForeground(green)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(green).BorderLeftForeground(green)
	return d
}
