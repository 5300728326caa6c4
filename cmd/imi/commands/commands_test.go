package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/imi/internal/contracts"
)

func TestRootCommands(t *testing.T) {
	want := []string{"api", "seed", "dashboard", "screener", "stats", "forecast", "scheduler", "import"}

	got := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing command %s", name)
	}

	sub := map[string]bool{}
	for _, c := range schedulerCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.Equal(t, map[string]bool{"start": true, "list": true, "run": true, "status": true}, sub)
}

func TestSplitFlag(t *testing.T) {
	assert.Equal(t, []string{"NVDA", "amd"}, splitFlag(" NVDA, ,amd,"))
	assert.Nil(t, splitFlag(""))
}

func TestFmtMetric(t *testing.T) {
	assert.Equal(t, "1.25", fmtMetric(contracts.M(1.254), 2))
	assert.Equal(t, "-", fmtMetric(contracts.Null(), 2))

	v := 0.5
	assert.Equal(t, "0.50", fmtFloatPtr(&v))
	assert.Equal(t, "-", fmtFloatPtr(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
