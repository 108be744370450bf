package cmd

// Exit codes for the httpcall CLI
const (
	// ExitSuccess indicates the request completed
	ExitSuccess = 0

	// ExitRequestFailure indicates a failing status (--fail) or schema violation
	ExitRequestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a transport or timeout failure
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
