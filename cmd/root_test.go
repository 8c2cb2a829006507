package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"extract", "transform", "analyze", "pipeline", "report", "runs", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "bluethumb", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, flagName := range []string{
		"max-distance", "max-time", "policy", "min-concentration",
		"workers", "no-store", "plot", "xlsx", "shapefile",
	} {
		flag := analyzeCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "analyze should have --%s flag", flagName)
	}
}

func TestPipelineCommand_Flags(t *testing.T) {
	// Pipeline carries both the extract and the analyze flag sets.
	for _, flagName := range []string{"start", "end", "state", "characteristic", "max-distance", "policy", "plot"} {
		flag := pipelineCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "pipeline should have --%s flag", flagName)
	}
}

func TestReportCommand_Flags(t *testing.T) {
	flag := reportCmd.Flags().Lookup("run")
	require.NotNil(t, flag, "report command should have --run flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	cmds := runsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"list", "show", "stats"}
	for _, name := range expected {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}

func TestApplyAnalyzeFlags(t *testing.T) {
	oldCfg := cfg
	t.Cleanup(func() {
		cfg = oldCfg
		analyzeMaxDistance, analyzePolicy, analyzeNoStore = 0, "", false
	})

	cfg = &config.Config{}
	cfg.Matching.MaxDistanceMeters = 100
	cfg.Matching.MaxTimeHours = 48
	cfg.Matching.Strategy = "nearest"
	cfg.Store.Driver = "sqlite"

	cmd := &cobra.Command{Use: "analyze"}
	registerAnalyzeFlags(cmd)
	require.NoError(t, cmd.Flags().Set("max-distance", "250"))
	require.NoError(t, cmd.Flags().Set("policy", "all"))
	require.NoError(t, cmd.Flags().Set("no-store", "true"))

	applyAnalyzeFlags(cmd)

	assert.Equal(t, 250.0, cfg.Matching.MaxDistanceMeters)
	assert.Equal(t, "all", cfg.Matching.Strategy)
	assert.Equal(t, "none", cfg.Store.Driver)
	// Flags left unset never touch the config.
	assert.Equal(t, 48.0, cfg.Matching.MaxTimeHours)
}

func TestApplyExtractFlags(t *testing.T) {
	oldCfg := cfg
	t.Cleanup(func() {
		cfg = oldCfg
		extractStart, extractEnd, extractState, extractCharacteristic = "", "", "", ""
	})

	cfg = &config.Config{}
	cfg.WQP.StartDate = "01-01-2023"
	cfg.WQP.EndDate = "12-31-2023"
	cfg.WQP.StateCode = "US:40"
	cfg.WQP.Characteristic = "Chloride"

	extractStart = "06-01-2023"
	extractCharacteristic = "Nitrate"
	applyExtractFlags()

	assert.Equal(t, "06-01-2023", cfg.WQP.StartDate)
	assert.Equal(t, "Nitrate", cfg.WQP.Characteristic)
	assert.Equal(t, "12-31-2023", cfg.WQP.EndDate)
	assert.Equal(t, "US:40", cfg.WQP.StateCode)
}
