package main

import (
	"github.com/charmbracelet/lipgloss"
)

var strengthColors = map[string]lipgloss.Color{
	"red":    lipgloss.Color("#E5484D"),
	"orange": lipgloss.Color("#F76B15"),
	"green":  lipgloss.Color("#30A46C"),
}

// renderStrength draws the rating label in its display color. Color is
// dropped automatically when the output is not a terminal.
func renderStrength(strength, color string) string {
	style := lipgloss.NewStyle().Bold(true)
	if c, ok := strengthColors[color]; ok {
		style = style.Foreground(c)
	}
	return style.Render("● " + strength)
}
