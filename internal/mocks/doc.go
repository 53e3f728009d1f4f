// Package mocks provides testify/mock implementations of the store, rewriter,
// renderer, object storage and subscriber-tracking interfaces shared by the
// task and api tests.
package mocks
