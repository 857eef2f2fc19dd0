//go:build !windows

package portscan

import "os"

// hasRawSocketCapability reports whether the current process can plausibly
// open a raw socket. Crafting and sending an actual SYN segment needs a
// packet-construction library this engine does not depend on, so the
// stealth probe uses this only to decide whether to warn about degrading
// to TCP-connect, never to attempt a raw send.
func hasRawSocketCapability() bool {
	return os.Geteuid() == 0
}
