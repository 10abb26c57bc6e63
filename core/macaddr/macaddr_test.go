package macaddr_test

import (
	"flag"
	"net"
	"testing"

	"github.com/usnistgov/avtpstream/core/macaddr"
	"github.com/usnistgov/avtpstream/core/testenv"
)

var makeAR = testenv.MakeAR

func TestMacAddr(t *testing.T) {
	assert, _ := makeAR(t)

	macZero, _ := net.ParseMAC("00:00:00:00:00:00")
	uA1, _ := net.ParseMAC("02:00:00:00:00:A1")
	uA2, _ := net.ParseMAC("02:00:00:00:00:A2")
	mA1, _ := net.ParseMAC("91:E0:F0:00:FE:00")
	mac64, _ := net.ParseMAC("02:00:00:00:00:00:00:64")

	assert.True(macaddr.Equal(uA1, uA1))
	assert.False(macaddr.Equal(uA1, uA2))

	assert.True(macaddr.IsValid(macZero))
	assert.False(macaddr.IsValid(mac64))

	assert.False(macaddr.IsUnicast(macZero))
	assert.True(macaddr.IsUnicast(uA1))
	assert.False(macaddr.IsUnicast(mA1))

	assert.True(macaddr.IsMulticast(mA1))
	assert.False(macaddr.IsMulticast(uA1))

	r := macaddr.MakeRandom(false)
	assert.True(macaddr.IsUnicast(r))
	assert.True(macaddr.IsMulticast(macaddr.MakeRandom(true)))
}

func TestFlag(t *testing.T) {
	assert, _ := makeAR(t)

	var f flag.FlagSet
	var m macaddr.Flag
	f.Var(&m, "m", "")
	assert.True(m.Empty())

	assert.Error(f.Parse([]string{"-m", "x"}))
	assert.Error(f.Parse([]string{"-m", "02:00:00:00:00:00:00:64"}))
	assert.NoError(f.Parse([]string{"-m", "02:00:00:00:00:A0"}))
	assert.False(m.Empty())

	text, e := m.MarshalText()
	assert.NoError(e)
	assert.Equal("02:00:00:00:00:a0", string(text))
}
