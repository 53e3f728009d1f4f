// Package domain contains the business records that resume generation jobs
// read and update: profiles, resume analyses and resume generations. These
// live in the application database, outside the queue.
package domain
