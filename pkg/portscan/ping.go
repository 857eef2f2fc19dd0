package portscan

import (
	"context"
	"time"

	"github.com/go-ping/ping"
)

// hostAlive runs a short ICMP echo probe against address and reports
// whether a reply arrived. It is advisory only: a negative or inconclusive
// result never aborts or skips a scan; Start only logs it and probes the
// ports anyway. Unprivileged ICMP (go-ping's non-raw mode) is used unless
// the process has raw-socket capability, so the engine does not require
// CAP_NET_RAW just to run host discovery; if the pinger fails to set up or
// run, the host is optimistically treated as alive.
func hostAlive(ctx context.Context, address string, timeout time.Duration) bool {
	pinger, err := ping.NewPinger(address)
	if err != nil {
		return true
	}
	pinger.Timeout = timeout
	pinger.Count = 1
	pinger.SetPrivileged(hasRawSocketCapability())

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		runErr = pinger.Run()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		pinger.Stop()
		<-done
	}
	if runErr != nil {
		return true
	}

	stats := pinger.Statistics()
	return stats != nil && stats.PacketsRecv > 0
}
