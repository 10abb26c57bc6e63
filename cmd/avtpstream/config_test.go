package main

import (
	"testing"

	"github.com/usnistgov/avtpstream/core/testenv"
	"github.com/usnistgov/avtpstream/core/yamlflag"
	"github.com/usnistgov/avtpstream/eavb"
)

var makeAR = testenv.MakeAR

func TestConfigDefaults(t *testing.T) {
	assert, require := makeAR(t)
	cfg = Config{}
	defer func() { cfg = Config{} }()

	require.NoError(yamlflag.New(&cfg).Set(`
unitSize: 3000
rx:
  device: ravb_rx3
`))
	cfg.applyDefaults()
	assert.Equal(DriverMem, cfg.Driver)
	assert.Equal(eavb.DevTx0.String(), cfg.TX.Device)
	assert.Equal("ravb_rx3", cfg.RX.Device)
	assert.Equal(3000, cfg.UnitSize)
	assert.Equal("91:e0:f0:00:00:00", cfg.Codec.Destination.String())

	drv, e := openDriver()
	require.NoError(e)
	defer drv.Close()
	assert.False(cfg.Codec.Source.Empty())
	assert.False(cfg.Codec.StreamID.IsZero())
	assert.Equal(cfg.Codec.StreamID, cfg.RX.StreamID)
}

func TestConfigUnknownDriver(t *testing.T) {
	_, require := makeAR(t)
	cfg = Config{Driver: "dpdk"}
	defer func() { cfg = Config{} }()

	_, e := openDriver()
	require.Error(e)
}
