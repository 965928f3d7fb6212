// Package tui is the terminal catalog browser.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/service"
	"catalog/storefront/internal/view"
)

const sessionID = "terminal"

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#8a93a6"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#2f6fed"))
	regionStyle    = lipgloss.NewStyle().PaddingRight(2)
	activeRegion   = lipgloss.NewStyle().PaddingRight(2).Bold(true).Foreground(lipgloss.Color("#2f6fed"))
	titleStyle     = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a93a6"))
	focusedStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#2f6fed")).Padding(0, 1)
	cardStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3a3f4b")).Padding(0, 1)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d64545"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#2e9d5b"))
)

type loadedMsg struct{ err error }

type model struct {
	ctx     context.Context
	service *service.Service
	page    view.Page
	product int // focused product card
	status  string
	failed  bool
	width   int
}

func newModel(ctx context.Context, svc *service.Service) model {
	m := model{ctx: ctx, service: svc}
	m.refresh()
	return m
}

// Run loads the catalog and starts the interactive browser.
func Run(ctx context.Context, svc *service.Service) error {
	_, err := tea.NewProgram(newModel(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.service.LoadCatalog(m.ctx)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.refresh()
		if msg.err != nil {
			m.setError(domain.BannerMessage(msg.err))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.moveFirst(1)
		case "shift+tab", "left", "h":
			m.moveFirst(-1)
		case "down", "j", "r":
			m.moveSecond(1)
		case "up", "k":
			m.moveSecond(-1)
		case "n":
			m.moveProduct(1)
		case "p":
			m.moveProduct(-1)
		case "enter", "o":
			m.order()
		}
	}
	return m, nil
}

func (m *model) refresh() {
	page, err := m.service.Page(m.ctx, sessionID)
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.page = page
	if m.product >= len(page.Products) {
		m.product = 0
	}
}

func (m *model) moveFirst(delta int) {
	n := len(m.page.FirstCards)
	if n == 0 {
		return
	}
	m.apply(m.service.SelectFirst(m.ctx, sessionID, wrap(m.page.SelectedFirst+delta, n)))
}

func (m *model) moveSecond(delta int) {
	n := len(m.page.Regions)
	if n == 0 {
		return
	}
	m.apply(m.service.SelectSecond(m.ctx, sessionID, wrap(m.page.SelectedSecond+delta, n)))
}

func (m *model) apply(page view.Page, err error) {
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.page = page
	m.product = 0
	m.status = ""
}

func (m *model) moveProduct(delta int) {
	if n := len(m.page.Products); n > 0 {
		m.product = wrap(m.product+delta, n)
	}
}

func (m *model) order() {
	if len(m.page.Products) == 0 {
		return
	}
	card := m.page.Products[m.product]
	intent, err := m.service.Order(m.ctx, sessionID, card.ID)
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.failed = false
	m.status = fmt.Sprintf("Checkout %s: %s", intent.ProductName, intent.CheckoutURL)
}

func (m *model) setError(text string) {
	m.failed = true
	m.status = text
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (m model) View() string {
	var b strings.Builder

	if m.page.Loading {
		b.WriteString(mutedStyle.Render("Loading catalog..."))
		b.WriteString("\n")
		return b.String()
	}

	// product types
	if len(m.page.FirstCards) == 0 {
		b.WriteString(mutedStyle.Render(m.page.NoFirstCards))
	} else {
		tabs := make([]string, 0, len(m.page.FirstCards))
		for _, card := range m.page.FirstCards {
			style := tabStyle
			if card.Active {
				style = activeTabStyle
			}
			tabs = append(tabs, style.Render(card.Name))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	}
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.regionsView(), m.productsView()))
	b.WriteString("\n\n")

	if m.status != "" {
		style := okStyle
		if m.failed {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("tab/←/→ type • ↑/↓/r region • n/p product • enter order • q quit"))
	return b.String()
}

func (m model) regionsView() string {
	if len(m.page.Regions) == 0 {
		return regionStyle.Render(mutedStyle.Render(m.page.NoRegions))
	}
	rows := make([]string, 0, len(m.page.Regions))
	for _, region := range m.page.Regions {
		style := regionStyle
		if region.Active {
			style = activeRegion
		}
		rows = append(rows, style.Render(strings.TrimSpace(region.Emoji+" "+region.Name)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) productsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.page.Title))
	b.WriteString("\n")
	if m.page.TaglineText != "" {
		b.WriteString(mutedStyle.Render(m.page.TaglineText))
		b.WriteString("\n")
	}

	if len(m.page.Products) == 0 {
		b.WriteString(mutedStyle.Render(m.page.NoProducts))
		return b.String()
	}

	for i, card := range m.page.Products {
		style := cardStyle
		if i == m.product {
			style = focusedStyle
		}
		body := fmt.Sprintf("#%d %s  ¥%s\n%s", card.ID, card.Name, card.Price, card.Summary)
		b.WriteString(style.Render(body))
		b.WriteString("\n")
	}
	return b.String()
}
