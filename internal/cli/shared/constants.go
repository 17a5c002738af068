// Package shared provides constants and helpers used across CLI subpackages.
package shared

import (
	"errors"
	"fmt"
	"strings"

	clierrors "github.com/profilesync/profilesync/internal/errors"
	"github.com/profilesync/profilesync/internal/settings"
)

// Command group IDs for help output.
const (
	GroupSync          = "sync"
	GroupProfiles      = "profiles"
	GroupConfiguration = "configuration"
)

// Exit codes.
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0
	// ExitFailure indicates the merge or apply failed
	ExitFailure = 1
	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3
	// ExitMissingDependency indicates a required directory or tool is missing
	ExitMissingDependency = 4
	// ExitMalformedInput indicates a settings or config file could not be parsed
	ExitMalformedInput = 6
)

// ExitError carries an explicit exit code through cobra's error return.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError returns an error that exits with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var malformed *settings.MalformedInputError
	if errors.As(err, &malformed) {
		return ExitMalformedInput
	}

	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingDependency
		case clierrors.Configuration:
			return ExitMalformedInput
		}
		return ExitFailure
	}

	if IsUsageError(err) {
		return ExitInvalidArguments
	}
	return ExitFailure
}

// IsUsageError reports whether err is one of cobra's command line errors.
func IsUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires at least", "requires at most", "invalid argument", "flag needs an argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
