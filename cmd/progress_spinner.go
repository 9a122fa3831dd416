package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/potato-cli/internal/batch"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type batchProgressMsg batch.Progress

type batchDoneMsg struct {
	err error
}

type batchSpinnerModel struct {
	spinner  spinner.Model
	label    string
	run      tea.Cmd
	progress batch.Progress
	err      error
	done     bool
}

func newBatchSpinnerModel(label string, run tea.Cmd) batchSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return batchSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m batchSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m batchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case batchProgressMsg:
		m.progress = batch.Progress(msg)
		return m, nil
	case batchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m batchSpinnerModel) View() string {
	if m.done {
		return ""
	}
	if m.progress.Requested == 0 {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}

	return fmt.Sprintf("%s %s %d/%d (%d ok)", m.spinner.View(), m.label, m.progress.Completed, m.progress.Requested, m.progress.Succeeded)
}

// runBatchSpinner shows a spinner on output while run executes, fed by the
// progress callbacks run receives.
func runBatchSpinner(ctx context.Context, output io.Writer, label string, run func(context.Context, batch.ProgressFunc) error) error {
	var p *tea.Program
	runCmd := func() tea.Msg {
		return batchDoneMsg{err: run(ctx, func(progress batch.Progress) {
			p.Send(batchProgressMsg(progress))
		})}
	}

	p = tea.NewProgram(
		newBatchSpinnerModel(label, runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(batchSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
