package netadapter

import (
	"context"

	"github.com/usnistgov/avtpstream/pktring"
)

type ringAdapter struct {
	tbl *Table
	id  ID
}

var _ pktring.Adapter = ringAdapter{}

// Adapter returns a pktring.Adapter bound to a transport context.
func (tbl *Table) Adapter(id ID) pktring.Adapter {
	return ringAdapter{tbl, id}
}

func (a ringAdapter) SendPrepare(slots []pktring.Slot) error {
	return a.tbl.SendPrepare(a.id, slots)
}

func (a ringAdapter) Send(ctx context.Context, slots []pktring.Slot) (int, error) {
	return a.tbl.Send(ctx, a.id, slots)
}

func (a ringAdapter) ReceivePrepare(slots []pktring.Slot, count int) error {
	return a.tbl.ReceivePrepare(a.id, slots, count)
}

func (a ringAdapter) Receive(ctx context.Context, count int) (int, error) {
	return a.tbl.Receive(ctx, a.id, count)
}
