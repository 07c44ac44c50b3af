package cli

import (
	"errors"
	"testing"
)

func TestParseArgs_Subcommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Subcommand
	}{
		{"no args defaults to run", nil, SubcommandRun},
		{"explicit run", []string{"run"}, SubcommandRun},
		{"init", []string{"init"}, SubcommandInit},
		{"flags only defaults to run", []string{"--json"}, SubcommandRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Subcommand != tt.want {
				t.Errorf("expected %s, got %s", tt.want, cmd.Subcommand)
			}
		})
	}
}

func TestParseArgs_Flags(t *testing.T) {
	cmd, err := ParseArgs([]string{"run", "--project", "/tmp/proj", "--config", "custom.yaml", "--json", "--ci", "--no-history"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cmd.Project != "/tmp/proj" {
		t.Errorf("project flag lost: %s", cmd.Project)
	}
	if cmd.ConfigPath != "custom.yaml" {
		t.Errorf("config flag lost: %s", cmd.ConfigPath)
	}
	if !cmd.JSONOutput || !cmd.CIMode || !cmd.NoHistory {
		t.Errorf("boolean flags lost: %+v", cmd)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown subcommand", []string{"frobnicate"}, ErrUnknownSubcommand},
		{"flag without value", []string{"run", "--project"}, ErrMissingFlagValue},
		{"config without value", []string{"--config"}, ErrMissingFlagValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	if _, err := ParseArgs([]string{"run", "--frobnicate"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestParseArgs_TrailingArgument(t *testing.T) {
	if _, err := ParseArgs([]string{"run", "extra"}); err == nil {
		t.Error("expected error for unexpected positional argument")
	}
}
