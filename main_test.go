package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-crawler/config"
)

func TestMaxEmptyPagesHelpNamesStopAtFirstEmpty(t *testing.T) {
	f := newRootCmd().Flags().Lookup("max-empty-pages")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "1 = stop at the first empty page")
}

func TestApplyFlagsOnlyOverridesChangedFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--max-empty-pages=1", "--base-url=https://venues.test"}))

	cfg := &config.Config{MaxPages: 50, MaxEmptyPages: 3, CSVOutputPath: "out.csv"}
	opts := &config.Config{}
	opts.MaxEmptyPages, _ = cmd.Flags().GetInt("max-empty-pages")
	opts.BaseURL, _ = cmd.Flags().GetString("base-url")

	applyFlags(cmd, cfg, opts)

	assert.Equal(t, 1, cfg.MaxEmptyPages)
	assert.Equal(t, "https://venues.test", cfg.BaseURL)
	assert.Equal(t, 50, cfg.MaxPages, "unset flags keep the config value")
	assert.Equal(t, "out.csv", cfg.CSVOutputPath)
}
