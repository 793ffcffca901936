package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "dashboard", "resolve", "forecast", "rekap", "export", "tui"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "dengue-atlas", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)

	flag = serveCmd.Flags().Lookup("watch")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestSelectionCommands_Flags(t *testing.T) {
	for _, c := range []struct {
		name string
		has  func(string) bool
	}{
		{"dashboard", func(f string) bool { return dashboardCmd.Flags().Lookup(f) != nil }},
		{"resolve", func(f string) bool { return resolveCmd.Flags().Lookup(f) != nil }},
		{"export", func(f string) bool { return exportCmd.Flags().Lookup(f) != nil }},
		{"tui", func(f string) bool { return tuiCmd.Flags().Lookup(f) != nil }},
	} {
		for _, f := range []string{"year", "mode", "k", "eps", "min-samples"} {
			assert.True(t, c.has(f), "%s should have --%s", c.name, f)
		}
	}
}

func TestFormatFlags_DefaultTable(t *testing.T) {
	for _, flag := range []string{
		dashboardCmd.Flags().Lookup("format").DefValue,
		resolveCmd.Flags().Lookup("format").DefValue,
		forecastCmd.Flags().Lookup("format").DefValue,
		rekapCmd.Flags().Lookup("format").DefValue,
	} {
		assert.Equal(t, formatTable, flag)
	}
}

func TestRekapCommand_RequiresArgs(t *testing.T) {
	require.NotNil(t, rekapCmd.Args)
	assert.Error(t, rekapCmd.Args(rekapCmd, nil))
	assert.NoError(t, rekapCmd.Args(rekapCmd, []string{"rekap_2024.xlsx"}))
}

func TestExportCommand_OutFlag(t *testing.T) {
	flag := exportCmd.Flags().ShorthandLookup("o")
	require.NotNil(t, flag)
	assert.Equal(t, "data_dbd.xlsx", flag.DefValue)
}
