// Package policy gates project configuration files behind a trust decision.
//
// A `.rat.yaml` file can set rule selections and sync hooks for its project,
// and hooks execute commands. Before such a file takes effect, the directory
// that contains it must be trusted: either recorded in the policy file, or
// approved through a [TrustPrompter].
package policy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/macropower/rat/api/v1beta1/policies"
	"github.com/macropower/rat/pkg/config"
)

// TrustMode selects how [TrustManager.Confirm] treats project
// configuration files.
type TrustMode int

// TrustDecision is the answer a trust prompt produced.
type TrustDecision int

const (
	// TrustModePrompt asks the prompter about unknown projects (the default).
	TrustModePrompt TrustMode = iota
	// TrustModeAllow applies project configs without asking, as --trust does.
	TrustModeAllow
	// TrustModeSkip ignores project configs without asking, as --no-trust does.
	TrustModeSkip
)

const ( //nolint:grouper // Separate iota sequences require separate const blocks.
	// TrustDecisionSkip leaves the project untrusted for this run.
	TrustDecisionSkip TrustDecision = iota
	// TrustDecisionAllow records the project in the trust list.
	TrustDecisionAllow
)

// ErrNotInteractive means a prompt was needed but no terminal was available
// to ask on. Callers skip the project config in that case.
var ErrNotInteractive = errors.New("terminal is not interactive")

// TrustPrompter asks the user about configuration files from projects the
// policy does not yet know.
type TrustPrompter interface {
	// Prompt asks whether to trust the project configuration at configPath.
	// Returns a [TrustDecision], or an error such as [ErrNotInteractive].
	Prompt(projectDir, configPath string) (TrustDecision, error)
}

// TrustManager decides whether project configuration files may be applied.
// It satisfies [config.TrustGate].
type TrustManager struct {
	policy     *policies.Policy
	prompter   TrustPrompter
	policyPath string
	mode       TrustMode
}

// Opt is a functional option for [TrustManager].
type Opt func(*TrustManager)

// WithPrompter sets the prompter consulted for untrusted projects. Without
// one, untrusted projects are skipped.
func WithPrompter(p TrustPrompter) Opt {
	return func(m *TrustManager) {
		m.prompter = p
	}
}

// WithMode sets the [TrustMode]. The default is [TrustModePrompt].
func WithMode(mode TrustMode) Opt {
	return func(m *TrustManager) {
		m.mode = mode
	}
}

// NewTrustManager creates a new [TrustManager]. Decisions made with
// [TrustManager.Confirm] are persisted to policyPath.
func NewTrustManager(pol *policies.Policy, policyPath string, opts ...Opt) *TrustManager {
	if pol == nil {
		pol = policies.New()
	}

	m := &TrustManager{
		policy:     pol,
		policyPath: policyPath,
		mode:       TrustModePrompt,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Confirm reports whether the project configuration at configPath may be
// applied. Depending on the mode it consults the policy's trust list, the
// prompter, or neither.
func (m *TrustManager) Confirm(projectDir, configPath string) (bool, error) {
	switch m.mode {
	case TrustModeSkip:
		slog.Info("skipping project config (--no-trust)", slog.String("path", configPath))

		return false, nil

	case TrustModeAllow:
		slog.Info("trusting project config (--trust)", slog.String("path", configPath))
		m.persistTrust(projectDir)

		return true, nil

	case TrustModePrompt:
		return m.confirmByPrompt(projectDir, configPath)

	default:
		return false, fmt.Errorf("unknown trust mode: %d", m.mode)
	}
}

func (m *TrustManager) confirmByPrompt(projectDir, configPath string) (bool, error) {
	if m.policy.IsTrusted(projectDir) {
		return true, nil
	}

	if m.prompter == nil {
		slog.Warn("skipping untrusted project config, no prompter available",
			slog.String("path", configPath),
		)

		return false, nil
	}

	decision, err := m.prompter.Prompt(projectDir, configPath)
	switch {
	case errors.Is(err, ErrNotInteractive):
		slog.Warn("skipping untrusted project config, terminal not interactive",
			slog.String("path", configPath),
			slog.String(
				"hint",
				"run rat interactively to trust this project, or use --trust/--no-trust flags",
			),
		)

		return false, nil

	case err != nil:
		return false, fmt.Errorf("prompt: %w", err)

	case decision == TrustDecisionSkip:
		return false, nil
	}

	m.persistTrust(projectDir)

	return true, nil
}

// persistTrust records projectDir in the policy file. Failures downgrade to
// a warning so the current run still proceeds with the approval.
func (m *TrustManager) persistTrust(projectDir string) {
	err := m.policy.TrustProject(projectDir, m.policyPath)
	if err != nil {
		slog.Warn("save trust decision", slog.Any("err", err))
	}
}

// Load reads and validates the policy file at path, writing the default
// policy first when none exists.
func Load(path string) (*policies.Policy, error) {
	err := policies.WriteDefault(path, false)
	if err != nil {
		slog.Error("write default policy", slog.Any("err", err))
	}

	loader, err := config.NewLoaderFromFile(path, policies.New, policies.DefaultValidator)
	if err != nil {
		return nil, fmt.Errorf("read policy %q: %w", path, err)
	}

	err = loader.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate policy %q: %w", path, err)
	}

	pol, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load policy %q: %w", path, err)
	}

	return pol, nil
}
