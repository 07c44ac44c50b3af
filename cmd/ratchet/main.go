package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ratchet/internal/cli"
	"ratchet/internal/config"
	"ratchet/internal/history"
	"ratchet/internal/ratchet"
	"ratchet/internal/report"
	"ratchet/internal/runner"
	"ratchet/internal/status"
)

// Exit codes. Violations and environment failures are distinct: a
// violation means the project broke a TDD rule, everything else means
// the tool itself could not complete its check.
const (
	exitClean      = 0
	exitViolations = 1
	exitUsage      = 2
	exitLedger     = 3
	exitHarness    = 4
	exitHistory    = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Environ(), "."))
}

// run orchestrates the full flow. Separated from main() to enable testing.
func run(args []string, environ []string, defaultDir string) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitUsage
	}

	projectDir := defaultDir
	if cmd.Project != "" {
		projectDir = cmd.Project
	}

	cfg, err := loadConfig(cmd, projectDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitUsage
	}

	ledgerPath := filepath.Join(projectDir, cfg.LedgerPath)

	if cmd.Subcommand == cli.SubcommandInit {
		return runInit(cfg, projectDir, ledgerPath, environ)
	}

	return runRatchet(cmd, cfg, projectDir, ledgerPath, environ)
}

// loadConfig resolves the project config from --config or the default
// location.
func loadConfig(cmd cli.Command, projectDir string) (config.Config, error) {
	if cmd.ConfigPath != "" {
		return config.Load(cmd.ConfigPath)
	}
	return config.LoadDir(projectDir)
}

// runInit creates the status ledger: records the current head as the
// global baseline and snapshots the suite's current outcomes so that
// pre-existing passing tests are grandfathered instead of flagged.
func runInit(cfg config.Config, projectDir, ledgerPath string, environ []string) int {
	if _, err := os.Stat(ledgerPath); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Remove it first to re-initialize.\n", cfg.LedgerPath)
		return exitUsage
	}

	ledger := status.Empty()

	// No git repository or a repository without commits is fine here: the
	// ledger simply carries no baseline and history checking starts from
	// the root of history. Any other failure to read the repository is a
	// real error and must not silently produce a baseline-less ledger.
	repo, err := history.OpenGit(projectDir)
	switch {
	case err == nil:
		head, err := repo.Head()
		if err != nil && !errors.Is(err, history.ErrNoHead) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return exitHistory
		}
		ledger.Baseline = head
	case errors.Is(err, history.ErrNoRepository):
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitHistory
	}

	output, err := cfg.Harness.Run(projectDir, environ)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitHarness
	}

	for _, result := range cfg.Harness.Parse(output) {
		switch result.Outcome {
		case runner.Passed:
			ledger.Tests[result.Name] = status.Entry{State: status.Passing}
		case runner.Failed:
			ledger.Tests[result.Name] = status.Entry{State: status.Pending}
		case runner.Ignored:
			// Not tracked until it actually runs.
		}
	}

	if err := status.Save(ledger, ledgerPath); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitLedger
	}

	fmt.Printf("tdd-ratchet: initialized %s (%d passing, %d pending)\n",
		cfg.LedgerPath, ledger.Count(status.Passing), ledger.Count(status.Pending))
	return exitClean
}

// runRatchet performs one full evaluation: gather, evaluate (pure),
// persist, report.
func runRatchet(cmd cli.Command, cfg config.Config, projectDir, ledgerPath string, environ []string) int {
	ledger, err := status.Load(ledgerPath)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no %s found.\nRun `ratchet init` to create one.\n", cfg.LedgerPath)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return exitLedger
	}

	output, err := cfg.Harness.Run(projectDir, environ)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitHarness
	}
	results := cfg.Harness.Parse(output)

	// History is gathered before evaluation so an inaccessible or
	// corrupt commit graph aborts the run without touching the ledger.
	var snapshots []history.Snapshot
	if !cmd.NoHistory {
		repo, err := history.OpenGit(projectDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return exitHistory
		}
		snapshots, err = history.Collect(repo, cfg.LedgerPath, ledger.Baseline)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return exitHistory
		}
	}

	result := ratchet.Evaluate(ledger, results, snapshots)

	// Always persist the updated ledger: valid transitions (new pending
	// tests, promotions) survive even when violations were found.
	if err := status.Save(result.Updated, ledgerPath); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitLedger
	}

	ciMode := cmd.CIMode || getEnvBool(environ, "CI")
	switch {
	case cmd.JSONOutput:
		jsonOutput, err := report.FormatJSON(result)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: cannot format report:", err)
			return exitUsage
		}
		fmt.Println(jsonOutput)
	case ciMode:
		fmt.Fprint(os.Stderr, report.FormatCI(result))
	default:
		fmt.Fprint(os.Stderr, report.FormatCLI(result))
	}

	if len(result.Violations) > 0 {
		return exitViolations
	}
	return exitClean
}

// getEnvBool checks if an environment variable is set to a truthy value.
func getEnvBool(environ []string, name string) bool {
	prefix := name + "="
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			val := strings.ToLower(strings.TrimPrefix(env, prefix))
			return val == "true" || val == "1" || val == "yes"
		}
	}
	return false
}
