// Package client implements the HTTP transport client at the heart of
// httpcall: issue request, apply policy, consume response.
//
// A call is a single synchronous exchange. Execute opens the connection,
// sends the request, hands the open response to a caller-supplied consumer,
// and guarantees the body and connection are released on every exit path.
// Redirects are followed according to a redirect.Policy, request bodies are
// replayed from memory when a hop is followed, and three independent timeout
// budgets (connect, inactivity, total) bound the call. The total budget is
// enforced by a watchdog timer scheduled at submission.
//
// Failures surface as *TransportError or *TimeoutError (a specialization
// of TransportError). *StatusError appears only when the caller opts in
// via FailOnStatus. Nothing is retried automatically.
package client
