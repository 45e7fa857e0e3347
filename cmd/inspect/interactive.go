package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/polykit/poly/concept"
	"github.com/polykit/poly/iterator"
	"github.com/polykit/poly/vtable"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	conceptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	sigStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectConcept modelState = iota
	stateShowConcept
	statePlayground
	stateAdvanceInput
)

var playgroundData = []int{2, 3, 5, 7, 11, 13, 17, 19}

type inspectModel struct {
	err      error
	concepts []*concept.Concept
	selected int
	state    modelState

	// playground holds an erased random-access iterator over
	// playgroundData; pos mirrors the iterator so moves can be bounded
	// before they are dispatched.
	walker *iterator.Any[int]
	pos    int
	moves  int
	input  textinput.Model
}

func newInspectModel() *inspectModel {
	return &inspectModel{state: stateSelectConcept}
}

type registryMsg struct {
	err      error
	concepts []*concept.Concept
}

func (m *inspectModel) Init() tea.Cmd {
	return m.loadRegistry
}

func (m *inspectModel) loadRegistry() tea.Msg {
	concepts := concept.All()
	sort.Slice(concepts, func(i, j int) bool { return concepts[i].Name() < concepts[j].Name() })

	if len(concepts) == 0 {
		return registryMsg{err: fmt.Errorf("no concepts registered")}
	}
	return registryMsg{concepts: concepts}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateAdvanceInput {
				break // typed into the input field
			}
			if m.walker != nil {
				m.walker.Destroy()
				m.walker = nil
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectConcept && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectConcept && m.selected < len(m.concepts)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectConcept:
				m.state = stateShowConcept
			case stateAdvanceInput:
				m.applyAdvance()
				m.state = statePlayground
			}

		case "w":
			if m.state == stateSelectConcept || m.state == stateShowConcept {
				if err := m.openPlayground(); err != nil {
					m.err = err
					return m, nil
				}
				m.state = statePlayground
			}

		case "n":
			if m.state == statePlayground && m.pos < len(playgroundData)-1 {
				if err := m.walker.Next(); err == nil {
					m.pos++
					m.moves++
				}
			}

		case "p":
			if m.state == statePlayground && m.pos > 0 {
				if err := m.walker.Prev(); err == nil {
					m.pos--
					m.moves++
				}
			}

		case "a":
			if m.state == statePlayground {
				ti := textinput.New()
				ti.Placeholder = "offset (may be negative)"
				ti.Prompt = "advance: "
				ti.Width = 24
				ti.Focus()
				m.input = ti
				m.state = stateAdvanceInput
			}

		case "esc":
			switch m.state {
			case stateShowConcept:
				m.state = stateSelectConcept
			case statePlayground:
				m.state = stateSelectConcept
			case stateAdvanceInput:
				m.state = statePlayground
			}
		}

	case registryMsg:
		m.err = msg.err
		m.concepts = msg.concepts
	}

	if m.state == stateAdvanceInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *inspectModel) openPlayground() error {
	if m.walker != nil {
		return nil
	}
	w, err := iterator.Erase[int](iterator.RandomAccess, iterator.Begin(playgroundData))
	if err != nil {
		return err
	}
	m.walker = w
	m.pos = 0
	m.moves = 0
	return nil
}

// applyAdvance dispatches a bounded random-access move from the input
// field; out-of-range offsets are clamped rather than rejected.
func (m *inspectModel) applyAdvance() {
	n, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
	if err != nil {
		return
	}
	if m.pos+n < 0 {
		n = -m.pos
	}
	if m.pos+n > len(playgroundData)-1 {
		n = len(playgroundData) - 1 - m.pos
	}
	if n == 0 {
		return
	}
	if err := m.walker.Advance(n); err == nil {
		m.pos += n
		m.moves++
	}
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if len(m.concepts) == 0 {
		return "Loading concept registry..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Concept Inspector"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectConcept:
		b.WriteString("Registered concepts:\n\n")
		for i, c := range m.concepts {
			line := fmt.Sprintf("%s (%d ops)", conceptStyle.Render(c.Name()), c.Len())
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • w playground • q quit"))

	case stateShowConcept:
		c := m.concepts[m.selected]
		b.WriteString(conceptStyle.Render(c.Name()))
		b.WriteString(fmt.Sprintf("\nfingerprint %016x\n", c.Fingerprint()))
		if bases := c.Bases(); len(bases) > 0 {
			names := make([]string, len(bases))
			for i, base := range bases {
				names[i] = base.Name()
			}
			sort.Strings(names)
			b.WriteString("refines " + strings.Join(names, ", ") + "\n")
		}
		b.WriteString("\n")

		ops := c.Operations()
		sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
		for _, op := range ops {
			b.WriteString(fmt.Sprintf("  %-20s %s\n", op.Name, sigStyle.Render(op.Sig.String())))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • w playground • q quit"))

	case statePlayground, stateAdvanceInput:
		b.WriteString("Erased iterator playground\n\n")
		b.WriteString(fmt.Sprintf("  data      %v\n", playgroundData))
		b.WriteString(fmt.Sprintf("  position  %d\n", m.pos))

		v, err := m.walker.Deref()
		if err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  value     error: %v\n", err)))
		} else {
			b.WriteString(fmt.Sprintf("  value     %s\n", valueStyle.Render(strconv.Itoa(v))))
		}
		b.WriteString(fmt.Sprintf("  concrete  %s (%s storage)\n", m.walker.ConcreteType(), m.walker.Poly().Mode()))
		b.WriteString(fmt.Sprintf("  moves     %d\n", m.moves))

		s := vtable.Stats()
		b.WriteString(fmt.Sprintf("\n  vtables: %d built, %d shared\n", s.Tables, s.Hits))

		if m.state == stateAdvanceInput {
			b.WriteString("\n" + m.input.View() + "\n")
			b.WriteString(helpStyle.Render("enter apply • esc cancel"))
		} else {
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("n next • p prev • a advance • esc back • q quit"))
		}
	}

	return b.String()
}

func runInteractive() error {
	p := tea.NewProgram(newInspectModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
