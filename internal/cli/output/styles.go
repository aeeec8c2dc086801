package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/aegis/pkg/core"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style

	TierLow    lipgloss.Style
	TierMedium lipgloss.Style
	TierHigh   lipgloss.Style
	TierNone   lipgloss.Style
}

// NewStyles builds the style set for a lipgloss renderer.
func NewStyles(r *lipgloss.Renderer) *Styles {
	green := lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#4ade80"}
	amber := lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fbbf24"}
	red := lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}
	grey := lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	blue := lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#60a5fa"}

	return &Styles{
		Header1: r.NewStyle().Bold(true).Underline(true),
		Header2: r.NewStyle().Bold(true).Foreground(blue),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(grey),
		Success: r.NewStyle().Foreground(green),
		Warning: r.NewStyle().Foreground(amber),
		Error:   r.NewStyle().Foreground(red),
		Info:    r.NewStyle().Foreground(blue),

		StatusSuccess: r.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(red).SetString("✗"),

		TierLow:    r.NewStyle().Foreground(green),
		TierMedium: r.NewStyle().Foreground(amber).Bold(true),
		TierHigh:   r.NewStyle().Foreground(red).Bold(true),
		TierNone:   r.NewStyle().Foreground(grey),
	}
}

// Tier returns the style for a tier.
func (s *Styles) Tier(t core.Tier) lipgloss.Style {
	switch t {
	case core.TierLow:
		return s.TierLow
	case core.TierMedium:
		return s.TierMedium
	case core.TierHigh:
		return s.TierHigh
	default:
		return s.TierNone
	}
}
