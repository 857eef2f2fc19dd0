//go:build windows

package portscan

// hasRawSocketCapability is always false on Windows: raw socket creation
// there needs WinPcap/Npcap, which this engine does not depend on.
func hasRawSocketCapability() bool {
	return false
}
