package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"focusquest/internal/engine"
	"focusquest/internal/storage"
	"focusquest/internal/ui"
)

// Options tune how the battle board starts.
type Options struct {
	In        io.Reader
	Out       io.Writer
	AltScreen bool
	// Penalty applies the daily overdue penalty when the board opens.
	Penalty bool
}

// Run shows the battle board until the user quits or ctx is cancelled.
func Run(ctx context.Context, svc *engine.Service, opts Options) error {
	m := newBoardModel(ctx, svc)
	m.penaltyOnStart = opts.Penalty

	popts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.In != nil {
		popts = append(popts, tea.WithInput(opts.In))
	}
	if opts.Out != nil {
		popts = append(popts, tea.WithOutput(opts.Out))
	}
	if opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(m, popts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type boardModel struct {
	ctx context.Context
	svc *engine.Service

	penaltyOnStart bool

	width  int
	height int

	view   *engine.BattleView
	agenda *engine.Agenda
	rows   []storage.Task

	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	view   *engine.BattleView
	agenda *engine.Agenda
	err    error
}

type completedMsg struct {
	title string
	res   *engine.CompleteResult
	err   error
}

type penaltyMsg struct {
	res *engine.PenaltyResult
	err error
}

func newBoardModel(ctx context.Context, svc *engine.Service) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	if m.penaltyOnStart {
		return m.penaltyCmd()
	}
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		v, err := m.svc.Battle(m.ctx)
		if v == nil {
			return loadedMsg{err: err}
		}
		a, aerr := m.svc.DueOn(m.ctx, time.Now())
		return loadedMsg{view: v, agenda: a, err: errors.Join(err, aerr)}
	}
}

func (m boardModel) completeCmd(t storage.Task) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteTask(m.ctx, t.ID)
		return completedMsg{title: t.Title, res: res, err: err}
	}
}

func (m boardModel) penaltyCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.ApplyDailyPenalty(m.ctx)
		return penaltyMsg{res: res, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		if msg.view == nil {
			m.err = msg.err
			return m, nil
		}
		m.view = msg.view
		m.agenda = msg.agenda
		m.rows = nil
		if m.agenda != nil {
			m.rows = append(append(m.rows, m.agenda.Overdue...), m.agenda.Due...)
		}
		m.clampSelection()
		if msg.err != nil {
			m.lastLog = "Partial refresh: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case completedMsg:
		if msg.res == nil {
			m.lastLog = "Complete failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = completionLog(msg.title, msg.res, msg.err)
		return m, m.loadCmd()
	case penaltyMsg:
		switch {
		case msg.err != nil:
			m.lastLog = "Penalty failed: " + msg.err.Error()
		case msg.res.Applied:
			m.lastLog = fmt.Sprintf("%s %d overdue: -%d HP", ui.IconSkull, len(msg.res.Overdue), msg.res.Damage)
		default:
			m.lastLog = "Penalty already applied for " + msg.res.Date + "."
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "p":
			m.lastLog = "Checking overdue tasks…"
			return m, m.penaltyCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
			return m, nil
		case "c", " ", "enter":
			if m.selected < 0 || m.selected >= len(m.rows) {
				m.lastLog = "Nothing to complete."
				return m, nil
			}
			t := m.rows[m.selected]
			m.lastLog = fmt.Sprintf("Completing %q…", t.Title)
			return m, m.completeCmd(t)
		}
	}
	return m, nil
}

func (m *boardModel) clampSelection() {
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func completionLog(title string, res *engine.CompleteResult, err error) string {
	parts := []string{fmt.Sprintf("%s %s: +%d XP +%d gold", ui.IconDone, title, res.Reward.XP, res.Reward.Currency)}
	if a := res.Attack; a != nil {
		parts = append(parts, fmt.Sprintf("hit for %d", a.Damage))
		if a.Defeat != nil {
			parts = append(parts, fmt.Sprintf("%s enemy %d defeated", ui.IconTrophy, a.Defeat.Round))
		}
	}
	if res.LevelUp != nil {
		parts = append(parts, fmt.Sprintf("%s %d → %d", ui.BadgeLevelUp, res.LevelUp.From, res.LevelUp.To))
	}
	if res.Archived {
		parts = append(parts, "archived")
	}
	if err != nil {
		parts = append(parts, ui.Warn.Render("("+err.Error()+")"))
	}
	return strings.Join(parts, " | ")
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	leftW := 34
	if m.width > 0 {
		maxLeft := m.width / 2
		if maxLeft < leftW {
			leftW = maxLeft
		}
		if leftW < 18 {
			leftW = 18
		}
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	rows := max(len(linesLeft), len(linesRight))

	var body strings.Builder
	for i := 0; i < rows; i++ {
		l, r := "", ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	if m.view == nil {
		return "FocusQuest | loading…"
	}
	li := m.view.Level
	return fmt.Sprintf("FocusQuest | %s | Level %d | XP %d %s | Gold %d",
		m.view.Profile.UserID, li.Level, m.view.Profile.XP,
		ui.Bar(li.XPIntoLevel, li.XPForNextLevel, 30), m.view.Profile.Currency)
}

func (m boardModel) renderSidebar() string {
	if m.view == nil {
		return "Battle\n\nLoading…"
	}
	v := m.view
	enemy := fmt.Sprintf("Round %d enemy (L%d)", v.State.Round, v.Enemy.Level)
	if v.Enemy.IsBoss {
		enemy = fmt.Sprintf("Round %d BOSS (L%d)", v.State.Round, v.Enemy.Level)
	}
	lines := []string{
		"Battle",
		"You  " + plainHP(v.State.PlayerHP, v.Stats.MaxHP),
		enemy,
		"     " + plainHP(v.State.CurrentEnemyHP, v.Enemy.MaxHP),
		fmt.Sprintf("Attack %d | Defeated %d", v.Stats.Attack, v.State.EnemiesDefeated),
		"",
		"Keys",
		"- ↑/↓ or j/k: move",
		"- c/space: complete",
		"- p: apply daily penalty",
		"- r: refresh",
		"- q: quit",
	}
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	out := []string{"Today"}
	if len(m.rows) == 0 {
		out = append(out, "(nothing due)")
		return strings.Join(out, "\n")
	}
	overdue := 0
	if m.agenda != nil {
		overdue = len(m.agenda.Overdue)
	}
	for i, t := range m.rows {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		mark := "  "
		if i < overdue {
			mark = "! "
		}
		out = append(out, fmt.Sprintf("%s%s%s (d%d)", cursor, mark, t.Title, t.Difficulty))
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

// plainHP skips styling so padRight can measure it.
func plainHP(hp, maxHP int) string {
	return fmt.Sprintf("%s %d/%d", ui.Bar(hp, maxHP, 14), hp, maxHP)
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
