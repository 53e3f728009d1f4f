// Package api exposes the HTTP surface of the service: the owner-facing
// endpoints that queue and poll resume generations, and the operator
// endpoints (service role only) that inspect and repair the job queues.
package api
