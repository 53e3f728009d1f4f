// Package storage is a small client for the Supabase Storage REST API, used
// to upload generated resume files, publish their URLs and delete them when
// they expire.
package storage
