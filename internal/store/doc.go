// Package store defines interfaces for the business records that queue
// workers read and update. Implementations live under internal/platform.
package store
