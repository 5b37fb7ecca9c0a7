package cli

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rohankatakam/digger/internal/errors"
)

// Exit codes by error category
const (
	ExitFailure      = 1
	ExitConfig       = 2
	ExitPrecondition = 3
	ExitExternal     = 4
)

// ExitCode maps an error to the process exit code. When several problems
// were collected, configuration problems take precedence.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.HasType(err, errors.ErrorTypeConfig):
		return ExitConfig
	case errors.HasType(err, errors.ErrorTypePrecondition):
		return ExitPrecondition
	case errors.HasType(err, errors.ErrorTypeExternal):
		return ExitExternal
	default:
		return ExitFailure
	}
}

// FormatError renders err for the terminal. Collected problems are listed
// one per line; verbose adds type, context and stack for typed errors.
func FormatError(err error, verbose bool) string {
	var multi *errors.MultiError
	if stderrors.As(err, &multi) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d problems found:\n", len(multi.Errors)))
		for _, e := range multi.Errors {
			sb.WriteString("  - ")
			sb.WriteString(formatOne(e, verbose))
			sb.WriteString("\n")
		}
		return strings.TrimRight(sb.String(), "\n")
	}
	return "Error: " + formatOne(err, verbose)
}

func formatOne(err error, verbose bool) string {
	var typed *errors.Error
	if verbose && stderrors.As(err, &typed) {
		return strings.TrimRight(typed.DetailedString(), "\n")
	}
	return err.Error()
}
