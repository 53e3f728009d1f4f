// Package gemini implements generation.Rewriter on Google's Gemini API.
//
// Each call renders the rewrite prompt, sends it as a single user turn and
// cleans the returned text. Rate limits, server errors and network failures
// are retried with jittered exponential backoff. Safety blocks and malformed
// responses are returned immediately.
package gemini
