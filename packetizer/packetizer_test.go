package packetizer_test

import (
	"testing"

	"github.com/usnistgov/avtpstream/core/testenv"
	"github.com/usnistgov/avtpstream/packetizer"
)

func TestKind(t *testing.T) {
	assert, require := testenv.MakeAR(t)

	var k packetizer.Kind
	require.NoError(k.UnmarshalText([]byte("Video-H264")))
	assert.Equal(packetizer.KindVideoH264, k)
	assert.True(k.IsVideo())
	assert.False(packetizer.KindAudioPCM.IsVideo())

	text, e := packetizer.KindCRF.MarshalText()
	require.NoError(e)
	assert.Equal("crf", string(text))

	assert.Error(k.UnmarshalText([]byte("mpeg2")))
	_, e = packetizer.Kind(99).MarshalText()
	assert.Error(e)
}

func TestStatus(t *testing.T) {
	assert, _ := testenv.MakeAR(t)
	assert.Equal("not-enough", packetizer.StatusNotEnough.String())
	assert.Equal("skip", packetizer.StatusSkip.String())
	assert.Equal("invalid", packetizer.Status(-1).String())
}
