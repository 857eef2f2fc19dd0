package main

import (
	"errors"
	"os"

	vulntorCli "github.com/vulntor/vulntor/cmd/vulntor/commands"
	"github.com/vulntor/vulntor/pkg/plugin"
	"github.com/vulntor/vulntor/pkg/portscan"
)

// main builds the vulntor root command and executes it.
// If the command execution fails, the application exits with an appropriate status code based on error type.
//
// Exit codes (as defined in ADR-0001):
//   - 0: Success
//   - 1: General error (default)
//   - 2: Invalid usage/input (plugin errors: ErrInvalidInput, ErrInvalidCategory,
//     ErrInvalidPluginID; portscan validation errors: ErrInvalidRange, ErrInvalidPort,
//     ErrInvalidTarget)
//   - 3: Target rejected by the CLI-layer scan allow-list, enforced before the
//     portscan core ever runs
//   - 4: Not found (plugin errors: ErrPluginNotFound, ErrPluginNotInstalled, ErrNoPluginsFound)
//   - 7: Service unavailable (plugin errors: ErrSourceNotAvailable, ErrUnavailable)
//   - 8: Partial failure (plugin errors: ErrPartialFailure)
func main() {
	command := vulntorCli.NewCommand()

	err := command.Execute()
	if err != nil {
		// Determine exit code based on error type
		exitCode := getExitCode(err)
		os.Exit(exitCode)
	}
}

// getExitCode determines the appropriate exit code for an error.
// It checks if the error is a plugin service error and uses plugin.ExitCode() for mapping.
// Port-scan errors (including CLI-layer allow-list denial) use their own
// 0/1/2/3 contract. Otherwise, it returns 1 (general error).
func getExitCode(err error) int {
	// Check if it's a plugin error using errors.Is
	if isPluginError(err) {
		return plugin.ExitCode(err)
	}

	if isPortScanError(err) {
		return vulntorCli.PortScanExitCode(err)
	}

	// Default to general error
	return 1
}

// isPortScanError reports whether err originated from the port-scan engine
// or the CLI-layer allow-list check in front of it.
func isPortScanError(err error) bool {
	if errors.Is(err, portscan.ErrInvalidRange) ||
		errors.Is(err, portscan.ErrInvalidPort) ||
		errors.Is(err, portscan.ErrInvalidTarget) ||
		errors.Is(err, portscan.ErrTargetResolution) ||
		errors.Is(err, portscan.ErrCapabilityDenied) ||
		errors.Is(err, portscan.ErrCancelled) {
		return true
	}
	return vulntorCli.IsAllowListDenied(err)
}

// isPluginError checks if the error is a plugin service error
func isPluginError(err error) bool {
	return errors.Is(err, plugin.ErrPluginNotFound) ||
		errors.Is(err, plugin.ErrPluginNotInstalled) ||
		errors.Is(err, plugin.ErrNoPluginsFound) ||
		errors.Is(err, plugin.ErrInvalidInput) ||
		errors.Is(err, plugin.ErrInvalidCategory) ||
		errors.Is(err, plugin.ErrInvalidPluginID) ||
		errors.Is(err, plugin.ErrSourceNotAvailable) ||
		errors.Is(err, plugin.ErrUnavailable) ||
		errors.Is(err, plugin.ErrPluginAlreadyInstalled) ||
		errors.Is(err, plugin.ErrConflict) ||
		errors.Is(err, plugin.ErrPartialFailure) ||
		errors.Is(err, plugin.ErrChecksumMismatch)
}
