package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// TermPrompter asks for trust decisions on the controlling terminal.
// It implements [TrustPrompter].
type TermPrompter struct{}

// NewTermPrompter creates a new [TermPrompter].
func NewTermPrompter() *TermPrompter {
	return &TermPrompter{}
}

// Prompt displays a form asking the user whether to trust the project
// configuration. Returns [ErrNotInteractive] when stdin is not a terminal.
func (p *TermPrompter) Prompt(projectDir, configPath string) (TrustDecision, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return TrustDecisionSkip, ErrNotInteractive
	}

	var decision string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Project Configuration Found").
				Description(fmt.Sprintf(
					"A project configuration was found at:\n%s\n\n"+
						"Project directory:\n%s\n\n"+
						"This project wants to set rule selections and sync hooks.\n"+
						"Do you trust this project?",
					configPath,
					projectDir,
				)),

			huh.NewSelect[string]().
				Options(
					huh.NewOption("Trust (add to trusted projects)", "trust"),
					huh.NewOption("Skip (use global config only)", "skip"),
				).
				Value(&decision),
		),
	).
		WithShowHelp(false)

	err := form.RunWithContext(context.Background())
	if err != nil {
		return TrustDecisionSkip, fmt.Errorf("run trust prompt: %w", err)
	}

	if decision == "trust" {
		return TrustDecisionAllow, nil
	}

	return TrustDecisionSkip, nil
}
