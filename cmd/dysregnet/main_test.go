package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dysregnet/dysregnet-explorer/internal/cli"
)

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "DysRegNet Explorer v"+cli.Version) {
		t.Errorf("version output should contain the version, got: %s", output)
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"lineage"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for an unknown command")
	}
}
