package yamlflag_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/usnistgov/avtpstream/core/testenv"
	"github.com/usnistgov/avtpstream/core/yamlflag"
)

type sampleConfig struct {
	Device string `yaml:"device" json:"device"`
	Slots  int    `yaml:"slots" json:"slots"`
}

func TestYAMLFlag(t *testing.T) {
	assert, require := testenv.MakeAR(t)

	var cfg sampleConfig
	var fs flag.FlagSet
	fs.Var(yamlflag.New(&cfg), "c", "")

	require.NoError(fs.Parse([]string{"-c", "{device: ravb_tx0, slots: 16}"}))
	assert.Equal("ravb_tx0", cfg.Device)
	assert.Equal(16, cfg.Slots)

	filename := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(os.WriteFile(filename, []byte("device: ravb_rx3\nslots: 8\n"), 0o644))
	require.NoError(fs.Parse([]string{"-c", "@" + filename}))
	assert.Equal("ravb_rx3", cfg.Device)
	assert.Equal(8, cfg.Slots)

	assert.Error(fs.Parse([]string{"-c", "@" + filename + ".missing"}))
	assert.Panics(func() { yamlflag.New(cfg) })
}
