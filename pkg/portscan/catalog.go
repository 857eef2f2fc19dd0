package portscan

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/ports.yaml
var embeddedPortListYAML []byte

// ModeKind tags which ScanMode variant a value holds.
type ModeKind string

const (
	ModeQuick    ModeKind = "quick"
	ModeStandard ModeKind = "standard"
	ModeFull     ModeKind = "full"
	ModeRange    ModeKind = "range"
	ModeTargeted ModeKind = "targeted"
)

// ScanMode is the sum type Quick | Standard | Full | Range(a,b) |
// Targeted(list). Construct one with the QuickMode/StandardMode/FullMode/
// RangeMode/TargetedMode constructors rather than building it by hand.
type ScanMode struct {
	kind    ModeKind
	rangeLo int
	rangeHi int
	ports   []int
}

func QuickMode() ScanMode    { return ScanMode{kind: ModeQuick} }
func StandardMode() ScanMode { return ScanMode{kind: ModeStandard} }
func FullMode() ScanMode     { return ScanMode{kind: ModeFull} }

// RangeMode builds a Range(a,b) mode. Validity (lo <= hi, both in 1-65535)
// is checked by Ports(), not here, so a ScanMode literal stays a plain value.
func RangeMode(lo, hi int) ScanMode {
	return ScanMode{kind: ModeRange, rangeLo: lo, rangeHi: hi}
}

// TargetedMode builds a Targeted(list) mode from an arbitrary port list.
func TargetedMode(ports []int) ScanMode {
	cp := make([]int, len(ports))
	copy(cp, ports)
	return ScanMode{kind: ModeTargeted, ports: cp}
}

// Kind reports which variant the mode holds.
func (m ScanMode) Kind() ModeKind { return m.kind }

// View projects the mode into its serializable form for ScanResult.Mode.
func (m ScanMode) View() ScanModeView {
	return ScanModeView{
		Kind:    m.kind,
		RangeLo: m.rangeLo,
		RangeHi: m.rangeHi,
		Ports:   m.ports,
	}
}

type portCatalog struct {
	Quick         []int `yaml:"quick"`
	StandardExtra []int `yaml:"standard_extra"`
}

var (
	catalogOnce sync.Once
	catalog     *portCatalog
	catalogErr  error
)

func loadCatalog() (*portCatalog, error) {
	catalogOnce.Do(func() {
		var c portCatalog
		if err := yaml.Unmarshal(embeddedPortListYAML, &c); err != nil {
			catalogErr = fmt.Errorf("unmarshal embedded port catalog: %w", err)
			return
		}
		catalog = &c
	})
	return catalog, catalogErr
}

// Ports materializes the deterministic, sorted, duplicate-free port
// sequence for this mode. Range and Targeted modes validate their inputs
// here and return ErrInvalidRange / ErrInvalidPort on failure.
func (m ScanMode) Ports() ([]int, error) {
	switch m.kind {
	case ModeQuick:
		c, err := loadCatalog()
		if err != nil {
			return nil, err
		}
		return dedupeSorted(c.Quick), nil

	case ModeStandard:
		c, err := loadCatalog()
		if err != nil {
			return nil, err
		}
		ports := make([]int, 0, 1024+len(c.StandardExtra))
		for p := 1; p <= 1024; p++ {
			ports = append(ports, p)
		}
		ports = append(ports, c.StandardExtra...)
		return dedupeSorted(ports), nil

	case ModeFull:
		ports := make([]int, 0, 65535)
		for p := 1; p <= 65535; p++ {
			ports = append(ports, p)
		}
		return ports, nil

	case ModeRange:
		if m.rangeLo > m.rangeHi {
			return nil, &RangeError{Lo: m.rangeLo, Hi: m.rangeHi}
		}
		if !validPort(m.rangeLo) || !validPort(m.rangeHi) {
			return nil, &PortError{Port: invalidOf(m.rangeLo, m.rangeHi)}
		}
		ports := make([]int, 0, m.rangeHi-m.rangeLo+1)
		for p := m.rangeLo; p <= m.rangeHi; p++ {
			ports = append(ports, p)
		}
		return ports, nil

	case ModeTargeted:
		for _, p := range m.ports {
			if !validPort(p) {
				return nil, &PortError{Port: p}
			}
		}
		return dedupeSorted(m.ports), nil

	default:
		return nil, fmt.Errorf("%w: unrecognized scan mode", ErrInvalidTarget)
	}
}

func validPort(p int) bool { return p >= 1 && p <= 65535 }

func invalidOf(a, b int) int {
	if !validPort(a) {
		return a
	}
	return b
}

func dedupeSorted(ports []int) []int {
	seen := make(map[int]struct{}, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
