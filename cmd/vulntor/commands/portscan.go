package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vulntor/vulntor/pkg/portscan"
)

// allowListDeniedError marks a target rejected by the CLI-layer allow-list
// check. It is never produced by pkg/portscan: the allow-list is enforced
// here, before the core is invoked, per the external interface contract.
type allowListDeniedError struct {
	target string
}

func (e *allowListDeniedError) Error() string {
	return fmt.Sprintf("target %q is not in the configured allow-list", e.target)
}

// NewPortScanCommand wires the focused port-scan engine (pkg/portscan) as a
// standalone CLI entrypoint, independent of the DAG-based scan pipeline.
func NewPortScanCommand() *cobra.Command {
	var (
		modeFlag      string
		portsFlag     string
		timeoutFlag   time.Duration
		concurrency   int
		rateLimit     float64
		stealth       bool
		jsonOutput    bool
		allowListFlag []string
		discoveryFlag bool
	)

	cmd := &cobra.Command{
		Use:     "portscan <target>",
		Short:   "Run a focused port scan against a single target",
		GroupID: "scan",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			if err := checkAllowList(target, allowListFlag); err != nil {
				return err
			}

			mode, err := resolvePortScanMode(modeFlag, portsFlag)
			if err != nil {
				return err
			}

			cfg := portscan.DefaultScanConfig()
			if timeoutFlag > 0 {
				cfg.TimeoutPerProbe = timeoutFlag
			}
			if concurrency > 0 {
				cfg.MaxConcurrentProbes = concurrency
			}
			cfg.RateLimit = rateLimit
			cfg.StealthMode = stealth
			cfg.EnableHostDiscovery = discoveryFlag

			handle, err := portscan.Start(cmd.Context(), target, mode, cfg)
			if err != nil {
				return err
			}

			result, err := handle.Await(cmd.Context())
			if err != nil {
				return err
			}

			return printPortScanResult(cmd, result, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "quick", "Scan mode: quick, standard, full, range, targeted")
	cmd.Flags().StringVar(&portsFlag, "ports", "", "Port list or range for --mode=range (lo-hi) or --mode=targeted (comma-separated)")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Per-probe timeout (default: engine default)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum concurrent probes (default: engine default)")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "Maximum probes per second (0 = unlimited)")
	cmd.Flags().BoolVar(&stealth, "stealth", false, "Request stealth-mode probing where the platform supports it")
	cmd.Flags().BoolVar(&discoveryFlag, "host-discovery", true, "Skip the port sweep if the host does not answer a liveness check")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the scan result as JSON")
	cmd.Flags().StringSliceVar(&allowListFlag, "allow", nil, "CIDR or host allowed as a scan target (repeatable); empty allows any target")

	return cmd
}

// checkAllowList enforces the CLI-layer target allow-list before the core
// is invoked. An empty list allows any target.
func checkAllowList(target string, allowList []string) error {
	if len(allowList) == 0 {
		return nil
	}

	host := target
	if h, _, err := net.SplitHostPort(target); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	for _, entry := range allowList {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == host {
			return nil
		}
		if ip == nil {
			continue
		}
		if _, cidr, err := net.ParseCIDR(entry); err == nil && cidr.Contains(ip) {
			return nil
		}
	}

	return &allowListDeniedError{target: target}
}

func resolvePortScanMode(modeFlag, portsFlag string) (portscan.ScanMode, error) {
	switch modeFlag {
	case "", "quick":
		return portscan.QuickMode(), nil
	case "standard":
		return portscan.StandardMode(), nil
	case "full":
		return portscan.FullMode(), nil
	case "range":
		lo, hi, err := parsePortRange(portsFlag)
		if err != nil {
			return portscan.ScanMode{}, err
		}
		return portscan.RangeMode(lo, hi), nil
	case "targeted":
		ports, err := parsePortList(portsFlag)
		if err != nil {
			return portscan.ScanMode{}, err
		}
		return portscan.TargetedMode(ports), nil
	default:
		return portscan.ScanMode{}, fmt.Errorf("unknown scan mode %q: must be one of quick,standard,full,range,targeted", modeFlag)
	}
}

func parsePortRange(spec string) (int, int, error) {
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--ports must be lo-hi for --mode=range, got %q", spec)
	}
	var lo, hi int
	if _, err := fmt.Sscanf(parts[0], "%d", &lo); err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &hi); err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}
	return lo, hi, nil
}

func parsePortList(spec string) ([]int, error) {
	if spec == "" {
		return nil, errors.New("--ports is required for --mode=targeted")
	}
	var ports []int
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var p int
		if _, err := fmt.Sscanf(raw, "%d", &p); err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", raw, err)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func printPortScanResult(cmd *cobra.Command, result portscan.ScanResult, jsonOutput bool) error {
	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Scan %s  target=%s (%s)\n", result.ID, result.Target.Host, result.Target.ResolvedAddress)
	fmt.Fprintf(out, "%d ports probed, %d open, %d closed, %d filtered (%s)\n",
		result.Statistics.TotalPorts, result.Statistics.OpenPorts,
		result.Statistics.ClosedPorts, result.Statistics.FilteredPorts,
		result.Statistics.ScanDuration.Duration())

	for _, o := range result.Outcomes {
		if o.Status != portscan.StatusOpen {
			continue
		}
		line := fmt.Sprintf("%d/%s open", o.Port, o.Transport)
		if o.Service != nil && o.Service.Name != "" && o.Service.Name != "unknown" {
			line += fmt.Sprintf("  %s", o.Service.Name)
			if o.Service.Product != "" {
				line += fmt.Sprintf(" (%s %s)", o.Service.Product, o.Service.Version)
			}
		}
		fmt.Fprintln(out, line)
	}

	return nil
}

// IsAllowListDenied reports whether err is a CLI-layer allow-list denial.
func IsAllowListDenied(err error) bool {
	var denied *allowListDeniedError
	return errors.As(err, &denied)
}

// PortScanExitCode computes the CLI exit code for a portscan command error,
// layering the allow-list denial (3) over the engine's own 0/1/2 mapping.
func PortScanExitCode(err error) int {
	if err == nil {
		return 0
	}
	var denied *allowListDeniedError
	if errors.As(err, &denied) {
		return 3
	}
	return portscan.ExitCode(err)
}
