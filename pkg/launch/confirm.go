package launch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/macropower/rat/pkg/sync"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a
// terminal.
var ErrNotInteractive = errors.New("not interactive")

// Confirmer asks whether a drifted project should be synchronized before its
// tool launches. Returning true syncs first, false launches anyway.
type Confirmer func(ctx context.Context, res *sync.VerifyResult) (bool, error)

// TermConfirm prompts on the terminal.
func TermConfirm(ctx context.Context, res *sync.VerifyResult) (bool, error) {
	// Check if we're running interactively.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, ErrNotInteractive
	}

	var syncFirst bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Rules out of sync").
				Description(fmt.Sprintf(
					"%d files in %s differ from the rule source.\n"+
						"Sync before launching?",
					len(res.Issues),
					res.Project,
				)).
				Affirmative("Sync").
				Negative("Launch anyway").
				Value(&syncFirst),
		),
	).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("run sync prompt: %w", err)
	}

	return syncFirst, nil
}
