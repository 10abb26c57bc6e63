package pktring_test

import (
	"context"

	"github.com/usnistgov/avtpstream/core/testenv"
	"github.com/usnistgov/avtpstream/pktring"
)

var makeAR = testenv.MakeAR

// mockAdapter is a pktring.Adapter that records calls.
type mockAdapter struct {
	// Accept limits the number of packets accepted by Send; zero accepts all.
	Accept int
	// Available limits the number of packets returned by Receive.
	Available int
	SendErr   error
	RecvErr   error

	Prepared []pktring.Slot
	Armed    int
	Sent     [][]pktring.Slot
	Requests []int
}

func (a *mockAdapter) SendPrepare(slots []pktring.Slot) error {
	a.Prepared = slots
	return nil
}

func (a *mockAdapter) Send(ctx context.Context, slots []pktring.Slot) (int, error) {
	if a.SendErr != nil {
		return 0, a.SendErr
	}
	a.Sent = append(a.Sent, append([]pktring.Slot{}, slots...))
	if a.Accept > 0 {
		return min(a.Accept, len(slots)), nil
	}
	return len(slots), nil
}

func (a *mockAdapter) ReceivePrepare(slots []pktring.Slot, count int) error {
	a.Prepared, a.Armed = slots, count
	return nil
}

func (a *mockAdapter) Receive(ctx context.Context, count int) (int, error) {
	a.Requests = append(a.Requests, count)
	if a.RecvErr != nil {
		return 0, a.RecvErr
	}
	n := min(count, a.Available)
	a.Available -= n
	return n, nil
}
