package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/unit4productions/botrun/internal/ads"
	"github.com/unit4productions/botrun/internal/bot"
	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/core"
	"github.com/unit4productions/botrun/internal/demo"
	"github.com/unit4productions/botrun/internal/economy"
	"github.com/unit4productions/botrun/internal/session"
	"github.com/unit4productions/botrun/internal/storage"
	"github.com/unit4productions/botrun/internal/telemetry"
)

// App bundles everything shared between UI sessions: configuration, the
// store, logging, and telemetry. One App serves both the local terminal and
// every SSH session.
type App struct {
	Store   *storage.Store
	Game    config.GameConfig
	Bots    config.BotsConfig
	Economy config.EconomyConfig
	Logger  *log.Logger
	Emitter telemetry.Emitter
}

// Model is the Bubble Tea model for one player. It owns a full game stack:
// session, economy, purchase processing, and the demo ad/storefront
// boundaries.
type Model struct {
	app     *App
	runtime core.RuntimeConfig
	screen  *core.Screen
	keys    *KeyMapper

	sess      *session.Session
	ledger    *economy.Ledger
	catalog   *economy.Catalog
	processor *economy.Processor
	manager   *ads.Manager
	front     *demo.Storefront

	menuCursor int
	botCursor  int
	shopCursor int
	status     string
	quitting   bool
}

var menuItems = []string{"Play", "Shop", "High scores & settings", "Quit"}

// NewModel assembles the full game stack for one player.
func NewModel(app *App, runtime core.RuntimeConfig) (Model, error) {
	if runtime.Seed == 0 {
		runtime.Seed = time.Now().UnixNano()
	}

	roster, err := bot.NewRoster(app.Bots)
	if err != nil {
		return Model{}, err
	}
	catalog, err := economy.NewCatalog(app.Economy)
	if err != nil {
		return Model{}, err
	}
	ledger, err := economy.NewLedger(app.Store, app.Emitter, app.Logger)
	if err != nil {
		return Model{}, err
	}
	processor := economy.NewProcessor(catalog, ledger, app.Store, app.Emitter, app.Logger)
	if n, err := processor.RecoverPending(); err != nil {
		return Model{}, err
	} else if n > 0 && app.Logger != nil {
		app.Logger.Info("recovered pending purchases", "count", n)
	}

	gate := ads.NewGate(app.Store, processor.HasRemovedAds, app.Emitter, app.Logger)
	sess := session.New(app.Game, runtime, roster, ledger, gate, app.Store,
		processor.BotUnlocked, app.Emitter, app.Logger)

	supply := demo.NewAdSupply()
	manager := ads.NewManager(supply, gate, sess.ApplyReward, app.Emitter, app.Logger)
	supply.Bind(manager)
	manager.Preload()

	// The between-runs interstitial slot fires from the session at every
	// game over, after the gate counters have moved.
	sess.SetAdSlot(func() { manager.ShowInterstitialIfEligible() })

	return Model{
		app:       app,
		runtime:   runtime,
		screen:    core.NewScreen(runtime.ScreenW, runtime.ScreenH),
		keys:      NewKeyMapper(),
		sess:      sess,
		ledger:    ledger,
		catalog:   catalog,
		processor: processor,
		manager:   manager,
		front:     demo.NewStorefront(processor),
	}, nil
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.runtime.TickRate)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.runtime.ScreenW = msg.Width
		m.runtime.ScreenH = msg.Height
		m.screen = core.NewScreen(msg.Width, msg.Height)
		return m, nil
	case TickMsg:
		m.sess.Advance(m.runtime.TickDelta())
		return m, tickCmd(m.runtime.TickRate)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.sess.State() {
	case session.StatePlaying:
		return m.handleRunKey(msg)
	case session.StatePaused:
		return m.handlePausedKey(msg)
	case session.StateGameOver:
		return m.handleGameOverKey(msg)
	case session.StateMainMenu:
		return m.handleMenuKey(msg)
	case session.StateBotSelection:
		return m.handleBotSelectKey(msg)
	case session.StateShop:
		return m.handleShopKey(msg)
	case session.StateSettings:
		return m.handleSettingsKey(msg)
	}
	return m, nil
}

func (m Model) handleRunKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, isQuit := m.keys.MapKey(msg)
	if isQuit {
		m.quitting = true
		return m, tea.Quit
	}

	switch action {
	case core.ActionJump:
		// A jump press while airborne routes to the double-jump ability.
		if !m.sess.Jump() {
			m.sess.UseAbility(bot.DoubleJump)
		}
	case core.ActionShield:
		m.sess.UseAbility(bot.Shield)
	case core.ActionMagnet:
		m.sess.UseAbility(bot.MagneticField)
	case core.ActionSpeedBoost:
		m.sess.UseAbility(bot.SpeedBoost)
	case core.ActionPause:
		//nolint:errcheck // Transition is valid from Playing
		m.sess.Pause()
	}
	return m, nil
}

func (m Model) handlePausedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, isQuit := m.keys.MapKey(msg)
	if isQuit {
		m.quitting = true
		return m, tea.Quit
	}
	switch action {
	case core.ActionPause, core.ActionConfirm:
		//nolint:errcheck // Transition is valid from Paused
		m.sess.Resume()
	case core.ActionBack:
		//nolint:errcheck // Ending is valid from Paused
		m.sess.EndGame()
	}
	return m, nil
}

func (m Model) handleGameOverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, isQuit := m.keys.MapKey(msg)
	if isQuit {
		m.quitting = true
		return m, tea.Quit
	}

	switch msg.String() {
	case "v":
		// Watch a rewarded video to revive the run.
		if !m.manager.ShowRewarded(ads.RewardExtraLife) {
			m.status = "no rewarded video ready"
		}
		return m, nil
	}

	switch action {
	case core.ActionRestart:
		botID := m.sess.Bot().Definition().ID
		if err := m.sess.StartGame(botID); err != nil {
			m.status = err.Error()
		}
	case core.ActionBack:
		//nolint:errcheck // GameOver -> BotSelection is a valid edge
		m.sess.To(session.StateBotSelection)
	}
	return m, nil
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keys.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case MenuActionDown:
		if m.menuCursor < len(menuItems)-1 {
			m.menuCursor++
		}
	case MenuActionSelect:
		m.status = ""
		switch m.menuCursor {
		case 0:
			//nolint:errcheck // MainMenu -> BotSelection is a valid edge
			m.sess.To(session.StateBotSelection)
		case 1:
			//nolint:errcheck // MainMenu -> Shop is a valid edge
			m.sess.To(session.StateShop)
		case 2:
			//nolint:errcheck // MainMenu -> Settings is a valid edge
			m.sess.To(session.StateSettings)
		case 3:
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleBotSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	defs := m.sess.Roster().List()
	switch m.keys.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.botCursor > 0 {
			m.botCursor--
		}
	case MenuActionDown:
		if m.botCursor < len(defs)-1 {
			m.botCursor++
		}
	case MenuActionSelect:
		if len(defs) == 0 {
			return m, nil
		}
		if err := m.sess.StartGame(defs[m.botCursor].ID); err != nil {
			m.status = err.Error()
		} else {
			m.status = ""
		}
	case MenuActionBack:
		//nolint:errcheck // BotSelection -> MainMenu is a valid edge
		m.sess.To(session.StateMainMenu)
	}
	return m, nil
}

func (m Model) handleShopKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	products := m.shopProducts()
	switch m.keys.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.shopCursor > 0 {
			m.shopCursor--
		}
	case MenuActionDown:
		if m.shopCursor < len(products)-1 {
			m.shopCursor++
		}
	case MenuActionSelect:
		if len(products) == 0 {
			return m, nil
		}
		p := products[m.shopCursor]
		if _, err := m.front.Buy(p.ID); err != nil {
			m.status = fmt.Sprintf("purchase failed: %v", err)
		} else {
			m.status = fmt.Sprintf("purchased %s", p.ID)
		}
	case MenuActionBack:
		//nolint:errcheck // Shop -> MainMenu is a valid edge
		m.sess.To(session.StateMainMenu)
	}
	return m, nil
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keys.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionBack, MenuActionSelect:
		//nolint:errcheck // Settings -> MainMenu is a valid edge
		m.sess.To(session.StateMainMenu)
	}
	return m, nil
}

func (m Model) shopProducts() []economy.Product {
	return m.catalog.List()
}

// View renders the screen for the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.sess.State() {
	case session.StatePlaying, session.StatePaused:
		return m.viewRun()
	case session.StateGameOver:
		return m.viewGameOver()
	case session.StateBotSelection:
		return m.viewBotSelect()
	case session.StateShop:
		return m.viewShop()
	case session.StateSettings:
		return m.viewSettings()
	default:
		return m.viewMenu()
	}
}

func (m Model) viewRun() string {
	RenderRun(m.screen, m.sess)

	var b strings.Builder
	b.WriteString(hudLine(m.sess, m.ledger))
	b.WriteString("\n")
	b.WriteString(abilityLine(m.sess))
	b.WriteString("\n")
	b.WriteString(m.screen.String())
	if m.sess.State() == session.StatePaused {
		b.WriteString("\n")
		b.WriteString(centerText(hudStyle.Render("PAUSED — p to resume, esc to end run"), m.runtime.ScreenW))
	}
	return b.String()
}

func (m Model) viewGameOver() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("GAME OVER", m.runtime.ScreenW)))
	b.WriteString("\n\n")

	lines := []string{
		fmt.Sprintf("score      %d", m.sess.Score()),
		fmt.Sprintf("coins      %d", m.sess.CoinsCollected()),
		fmt.Sprintf("duration   %.0fs", m.sess.Elapsed()),
	}
	b.WriteString(centerText(boxStyle.Render(strings.Join(lines, "\n")), m.runtime.ScreenW))
	b.WriteString("\n\n")

	help := "r restart · v watch ad to revive · esc bot select · q quit"
	b.WriteString(centerText(dimStyle.Render(help), m.runtime.ScreenW))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(centerText(lockStyle.Render(m.status), m.runtime.ScreenW))
	}
	return b.String()
}

func (m Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("B O T R U N", m.runtime.ScreenW)))
	b.WriteString("\n\n")
	for i, item := range menuItems {
		line := "  " + item
		if i == m.menuCursor {
			line = hudStyle.Render("> " + item)
		}
		b.WriteString(centerText(line, m.runtime.ScreenW))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(centerText(dimStyle.Render(hudLine(m.sess, m.ledger)), m.runtime.ScreenW))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(centerText(lockStyle.Render(m.status), m.runtime.ScreenW))
	}
	return b.String()
}

func (m Model) viewBotSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("SELECT BOT", m.runtime.ScreenW)))
	b.WriteString("\n\n")
	for i, def := range m.sess.Roster().List() {
		abilities := make([]string, len(def.Abilities))
		for j, a := range def.Abilities {
			abilities[j] = a.String()
		}
		line := fmt.Sprintf("%-10s x%.1f  %s", def.Name, def.SpeedFactor, strings.Join(abilities, ", "))
		if !m.sess.BotAvailable(def.ID) {
			line += lockStyle.Render("  [locked]")
		}
		if i == m.botCursor {
			line = hudStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(centerText(line, m.runtime.ScreenW))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(centerText(dimStyle.Render("enter start · esc back"), m.runtime.ScreenW))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(centerText(lockStyle.Render(m.status), m.runtime.ScreenW))
	}
	return b.String()
}

func (m Model) viewShop() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("SHOP", m.runtime.ScreenW)))
	b.WriteString("\n\n")
	for i, p := range m.shopProducts() {
		line := fmt.Sprintf("%-18s %-18s $%d.%02d", p.ID, p.Benefit.String(), p.PriceUSDCents/100, p.PriceUSDCents%100)
		if i == m.shopCursor {
			line = hudStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(centerText(line, m.runtime.ScreenW))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.processor.SeasonPassActive() {
		b.WriteString(centerText(readyStyle.Render("season pass active"), m.runtime.ScreenW))
		b.WriteString("\n")
	}
	b.WriteString(centerText(dimStyle.Render(hudLine(m.sess, m.ledger)), m.runtime.ScreenW))
	b.WriteString("\n")
	b.WriteString(centerText(dimStyle.Render("enter buy · esc back"), m.runtime.ScreenW))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(centerText(lockStyle.Render(m.status), m.runtime.ScreenW))
	}
	return b.String()
}

func (m Model) viewSettings() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("HIGH SCORES", m.runtime.ScreenW)))
	b.WriteString("\n\n")
	b.WriteString(RenderScoreTable(m.app.Store, m.runtime.ScreenW, m.runtime.ScreenH))
	b.WriteString("\n")
	b.WriteString(centerText(dimStyle.Render("esc back"), m.runtime.ScreenW))
	return b.String()
}

// Run starts the Bubble Tea program for a local terminal.
func Run(app *App, runtime core.RuntimeConfig) error {
	model, err := NewModel(app, runtime)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
