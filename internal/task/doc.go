// Package task runs the background side of resume generation: one polling
// loop per queue that leases jobs from the queue manager and hands them to a
// Handler, the handlers for the resume-generation and file-deletion queues,
// and the retention sweep that schedules expired files for deletion.
package task
