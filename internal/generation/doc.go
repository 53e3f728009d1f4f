// Package generation defines the boundary between resume generation jobs and
// the language models that rewrite resumes. It holds the Rewriter interface,
// the rewrite prompt, response clean-up, and a FallbackRewriter that tries
// several providers in order before reporting the service unavailable.
package generation
