/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package exitcode provides standardized exit codes for docmaint
package exitcode

// Exit codes for the docmaint CLI. CI callers rely on exactly these two.
const (
	Success      = 0
	GeneralError = 1
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	default:
		return "Unknown error"
	}
}
