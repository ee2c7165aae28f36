package errors

import (
	"github.com/cockroachdb/errors"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// usageErrors are the sentinels that indicate the user asked for something
// that cannot exist, rather than something that failed while running.
var usageErrors = []error{
	ErrUnknownConfigKey,
	ErrInvalidConfigValue,
	ErrTemplateNotFound,
	ErrNoTemplateSpecified,
	ErrInvalidProjectName,
	ErrInvalidUsage,
}

// GetExitCode maps an error chain to a process exit code: usage sentinels
// map to ExitUsage and everything else to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	for _, sentinel := range usageErrors {
		if errors.Is(err, sentinel) {
			return ExitUsage
		}
	}

	return ExitFailure
}
