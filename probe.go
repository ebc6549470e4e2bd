package main

import (
	"context"
	"net"
	"time"

	"github.com/kutluhann/kademlia-routing/dht"
)

// DialProber treats a peer as alive when its address accepts a TCP
// connection within Timeout.
type DialProber struct {
	Timeout time.Duration
}

func (p *DialProber) SendPing(ctx context.Context, receiver dht.Contact) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", receiver.Address())
	if err != nil {
		return err
	}
	return conn.Close()
}
