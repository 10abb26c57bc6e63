package logging_test

import (
	"testing"

	"github.com/usnistgov/avtpstream/core/logging"
	"github.com/usnistgov/avtpstream/core/testenv"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert, _ := testenv.MakeAR(t)

	t.Setenv("AVTPSTREAM_LOG", "W")
	t.Setenv("AVTPSTREAM_LOG_LoggingTestB", "D")

	a := logging.GetLevel("LoggingTestA")
	assert.Equal(byte('W'), a.Level())
	b := logging.GetLevel("LoggingTestB")
	assert.Equal(byte('D'), b.Level())
	assert.Same(a, logging.GetLevel("LoggingTestA"))

	a.SetLevel("x")
	assert.Equal(byte('I'), a.Level())
	a.SetLevel("")
	assert.Equal(byte('I'), a.Level())
	a.SetLevel("Error")
	assert.Equal(byte('E'), a.Level())

	logger := logging.New("LoggingTestA")
	assert.NotNil(logger.Check(zapcore.ErrorLevel, "x"))
	assert.Nil(logger.Check(zapcore.WarnLevel, "x"))
}
