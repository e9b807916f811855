package ux

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

// typingModel is the bubbletea model for the typing indicator.
type typingModel struct {
	spinner spinner.Model
	theme   Theme
}

func newTypingModel(theme Theme) typingModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return typingModel{spinner: sp, theme: theme}
}

// Init starts the spinner animation.
func (m typingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m typingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the indicator line.
func (m typingModel) View() tea.View {
	return tea.NewView(m.spinner.View() + " " + m.theme.hintStyle().Render("Assistant is typing..."))
}

// typingIndicator runs the spinner program for the duration of one send.
type typingIndicator struct {
	prog *tea.Program
	done chan struct{}
}

func startTypingIndicator(theme Theme) *typingIndicator {
	ind := &typingIndicator{
		prog: tea.NewProgram(newTypingModel(theme)),
		done: make(chan struct{}),
	}
	go func() {
		defer close(ind.done)
		// A render failure only loses the animation, never the response.
		_, _ = ind.prog.Run()
	}()
	return ind
}

func (t *typingIndicator) stop() {
	t.prog.Quit()
	<-t.done
}
