package netadapter_test

import (
	"errors"

	"github.com/usnistgov/avtpstream/core/testenv"
	"github.com/usnistgov/avtpstream/eavb"
)

var makeAR = testenv.MakeAR

// failDriver fails every Open.
type failDriver struct{}

func (failDriver) Open(dev eavb.DevName) (eavb.Queue, error) {
	return nil, errors.New("no such device")
}
