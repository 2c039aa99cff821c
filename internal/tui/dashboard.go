// Package tui is the SSH-served dashboard: a table of supported assets
// with their latest quotes and on-demand forecasts.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foresight/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const requestTimeout = 15 * time.Second

// ForecastClient is the slice of the forecast service the dashboard needs.
type ForecastClient interface {
	Predict(ctx context.Context, symbol, timeframe string) (*domain.ForecastResult, error)
	Prices(ctx context.Context) ([]*domain.PriceSnapshot, error)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1)

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	bullishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	bearishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type pricesMsg struct {
	snaps map[string]*domain.PriceSnapshot
	err   error
}

type forecastMsg struct {
	result *domain.ForecastResult
	err    error
}

// Model is the dashboard's bubbletea model.
type Model struct {
	client    ForecastClient
	table     table.Model
	timeframe domain.Timeframe
	forecast  *domain.ForecastResult
	status    string
	width     int
	height    int
}

func NewModel(client ForecastClient) Model {
	columns := []table.Column{
		{Title: "Symbol", Width: 8},
		{Title: "Price", Width: 14},
		{Title: "24h", Width: 10},
	}
	rows := make([]table.Row, 0, len(domain.SupportedSymbols))
	for _, sym := range domain.SupportedSymbols {
		rows = append(rows, table.Row{sym, "-", "-"})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	return Model{
		client:    client,
		table:     t,
		timeframe: domain.Timeframe1h,
		status:    "loading prices...",
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) Init() tea.Cmd {
	return m.loadPrices()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "refreshing prices..."
			return m, m.loadPrices()
		case "t":
			m.timeframe = nextTimeframe(m.timeframe)
			m.status = fmt.Sprintf("timeframe: %s", m.timeframe)
			return m, nil
		case "enter":
			symbol := m.table.SelectedRow()[0]
			m.status = fmt.Sprintf("forecasting %s over %s...", symbol, m.timeframe)
			return m, m.loadForecast(symbol)
		}

	case pricesMsg:
		if msg.err != nil {
			m.status = "price load failed: " + msg.err.Error()
			return m, nil
		}
		rows := m.table.Rows()
		for i, row := range rows {
			if snap, ok := msg.snaps[row[0]]; ok {
				rows[i][1] = fmt.Sprintf("$%.2f", snap.PriceUSD)
				rows[i][2] = fmt.Sprintf("%+.2f%%", snap.Change24hPct)
			}
		}
		m.table.SetRows(rows)
		m.status = "prices updated"
		return m, nil

	case forecastMsg:
		if msg.err != nil {
			m.status = "forecast failed: " + msg.err.Error()
			return m, nil
		}
		m.forecast = msg.result
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("foresight · " + string(m.timeframe)))
	sb.WriteString("\n")
	sb.WriteString(baseStyle.Render(m.table.View()))
	sb.WriteString("\n")

	if m.forecast != nil {
		sb.WriteString(renderForecast(m.forecast))
	}
	if m.status != "" {
		sb.WriteString(statusStyle.Render(m.status))
		sb.WriteString("\n")
	}
	sb.WriteString(statusStyle.Render("enter: forecast · t: timeframe · r: refresh · q: quit"))
	return sb.String()
}

func renderForecast(f *domain.ForecastResult) string {
	trendStyle := bullishStyle
	if f.Trend == domain.TrendBearish {
		trendStyle = bearishStyle
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s %s  $%.2f → $%.2f (%+.2f%%)\n",
		f.Symbol,
		trendStyle.Render(string(f.Trend)),
		f.CurrentPrice, f.PredictedPrice, f.Recommendation.PriceChangePct))
	sb.WriteString(fmt.Sprintf("confidence %.0f%% · risk %d/10 · prob up %d%%\n",
		f.Confidence, f.RiskScore, f.PriceIncreaseProb))
	sb.WriteString(fmt.Sprintf("support $%.2f · resistance $%.2f · %s\n",
		f.Support, f.Resistance, trendStyle.Render(string(f.Recommendation.Action))))
	if f.Synthetic {
		sb.WriteString(noticeStyle.Render("simulated data: live sources unavailable"))
		sb.WriteString("\n")
	}
	return sb.String()
}

func nextTimeframe(tf domain.Timeframe) domain.Timeframe {
	for i, t := range domain.Timeframes {
		if t == tf {
			return domain.Timeframes[(i+1)%len(domain.Timeframes)]
		}
	}
	return domain.Timeframe1h
}

func (m Model) loadPrices() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		snapshots, err := client.Prices(ctx)
		if err != nil {
			return pricesMsg{err: err}
		}
		if len(snapshots) == 0 {
			return pricesMsg{err: fmt.Errorf("no prices available")}
		}
		snaps := make(map[string]*domain.PriceSnapshot, len(snapshots))
		for _, snap := range snapshots {
			snaps[snap.Symbol] = snap
		}
		return pricesMsg{snaps: snaps}
	}
}

func (m Model) loadForecast(symbol string) tea.Cmd {
	client := m.client
	tf := m.timeframe
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result, err := client.Predict(ctx, symbol, string(tf))
		return forecastMsg{result: result, err: err}
	}
}
