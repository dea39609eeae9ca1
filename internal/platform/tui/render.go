package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unit4productions/botrun/internal/bot"
	"github.com/unit4productions/botrun/internal/core"
	"github.com/unit4productions/botrun/internal/economy"
	"github.com/unit4productions/botrun/internal/session"
	"github.com/unit4productions/botrun/internal/track"
)

var (
	hudStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	readyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	coolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	shieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).MarginBottom(1)
	lockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
)

// RenderRun draws the active run into the screen buffer: the ground line,
// the scrolling field, and the bot sprite.
func RenderRun(s *core.Screen, sess *session.Session) {
	s.Clear()

	groundY := s.Height() - 2
	s.DrawHLine(0, groundY, s.Width(), '─')

	field := sess.Field()
	for _, o := range field.Obstacles() {
		r := o.Rect(groundY)
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				s.Set(x, y, '▓')
			}
		}
	}
	for _, c := range field.Coins() {
		if c.Collected {
			continue
		}
		r := c.Rect(groundY)
		s.Set(r.X, r.Y, 'o')
	}

	b := sess.Bot()
	player := track.PlayerRect(groundY, b.AltitudeCells())
	sprite := '@'
	if b.IsInvulnerable() {
		sprite = '0'
	}
	for y := player.Y; y < player.Y+player.H; y++ {
		for x := player.X; x < player.X+player.W; x++ {
			s.Set(x, y, sprite)
		}
	}
}

// hudLine builds the top status line: score, collectibles, wallet balances.
func hudLine(sess *session.Session, ledger *economy.Ledger) string {
	parts := []string{
		hudStyle.Render(fmt.Sprintf("SCORE %d", sess.Score())),
		dimStyle.Render(fmt.Sprintf("coins %d", sess.CoinsCollected())),
		dimStyle.Render(fmt.Sprintf("wallet %d/%d/%d",
			ledger.Balance(economy.Primary),
			ledger.Balance(economy.Secondary),
			ledger.Balance(economy.Premium))),
	}
	return strings.Join(parts, "  ")
}

// abilityLine builds the cooldown readout for the active bot. Ready
// abilities show their key binding; cooling ones show seconds remaining.
func abilityLine(sess *session.Session) string {
	b := sess.Bot()
	if b == nil {
		return ""
	}

	keys := map[bot.Ability]string{
		bot.DoubleJump:    "spc",
		bot.Shield:        "1",
		bot.MagneticField: "2",
		bot.SpeedBoost:    "3",
	}

	var parts []string
	for _, a := range b.Definition().Abilities {
		remaining := b.CooldownRemaining(a)
		label := fmt.Sprintf("%s[%s]", a.String(), keys[a])
		if remaining > 0 {
			parts = append(parts, coolStyle.Render(fmt.Sprintf("%s %.1fs", label, remaining)))
		} else {
			parts = append(parts, readyStyle.Render(label+" ready"))
		}
	}

	if b.IsInvulnerable() {
		parts = append(parts, shieldStyle.Render(fmt.Sprintf("SHIELD %.1fs", b.InvulnerabilityRemaining())))
	}
	if b.MagnetActive() {
		parts = append(parts, shieldStyle.Render("MAGNET"))
	}
	if b.BoostActive() {
		parts = append(parts, shieldStyle.Render("BOOST"))
	}
	return strings.Join(parts, "  ")
}

// centerText centers a single line of text within the given width.
func centerText(text string, width int) string {
	pad := (width - lipgloss.Width(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}
