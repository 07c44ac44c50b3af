package cli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSubcommand is returned for an unrecognized subcommand.
var ErrUnknownSubcommand = errors.New("unknown subcommand: usage: ratchet [init|run] [flags]")

// ErrMissingFlagValue is returned when a flag requires a value but none is provided.
var ErrMissingFlagValue = errors.New("flag requires a value")

// Subcommand represents the CLI subcommand.
type Subcommand string

const (
	SubcommandRun  Subcommand = "run"
	SubcommandInit Subcommand = "init"
)

// Command represents the parsed CLI input.
type Command struct {
	Subcommand Subcommand

	Project    string // --project <dir>
	ConfigPath string // --config <path>
	JSONOutput bool   // --json
	CIMode     bool   // --ci
	NoHistory  bool   // --no-history
}

// ParseArgs parses CLI arguments into a Command. It expects args to be
// os.Args[1:]. With no subcommand, "run" is assumed.
func ParseArgs(args []string) (Command, error) {
	cmd := Command{Subcommand: SubcommandRun}

	i := 0
	if len(args) > 0 && !strings.HasPrefix(args[0], "--") {
		switch args[0] {
		case "run":
			cmd.Subcommand = SubcommandRun
		case "init":
			cmd.Subcommand = SubcommandInit
		default:
			return Command{}, ErrUnknownSubcommand
		}
		i = 1
	}

	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return Command{}, fmt.Errorf("unexpected argument '%s'", arg)
		}

		switch strings.TrimPrefix(arg, "--") {
		case "project":
			if i+1 >= len(args) {
				return Command{}, ErrMissingFlagValue
			}
			i++
			cmd.Project = args[i]
		case "config":
			if i+1 >= len(args) {
				return Command{}, ErrMissingFlagValue
			}
			i++
			cmd.ConfigPath = args[i]
		case "json":
			cmd.JSONOutput = true
		case "ci":
			cmd.CIMode = true
		case "no-history":
			cmd.NoHistory = true
		default:
			return Command{}, fmt.Errorf("unknown flag '%s'", arg)
		}
		i++
	}

	return cmd, nil
}
