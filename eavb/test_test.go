package eavb_test

import (
	"github.com/usnistgov/avtpstream/core/testenv"
)

var (
	makeAR       = testenv.MakeAR
	bytesFromHex = testenv.BytesFromHex
)
