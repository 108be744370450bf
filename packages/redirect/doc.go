// Package redirect decides whether and how a redirect response is followed.
//
// A Policy looks at the original method, the response status, and the
// resolved Location target and returns a Decision. The built-in policies
// mirror the common client behaviors:
//   - Strict: auto-follows 301/302 only for GET and HEAD
//   - Lax: auto-follows 301/302 with the original method
//   - None: never follows, every 3xx is handed back to the caller
package redirect
