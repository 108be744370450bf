// Package cmd implements the httpcall CLI commands using Cobra.
//
// Available commands:
//   - send: Issue a single HTTP request (get/post are shorthands)
//   - mock: Serve scripted responses from a YAML routes file
//   - probe: Fire repeated requests and report latency percentiles
//   - history: List or clear recorded exchanges
//   - version: Show httpcall version information
//
// Flags map directly onto client options: redirect policy, the three
// timeout budgets, headers, multipart fields, and body extraction.
package cmd
