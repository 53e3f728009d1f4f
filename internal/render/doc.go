// Package render turns a plain-text resume into the downloadable DOCX and PDF
// files stored for each generation.
//
// Both formats share one section model produced by ParseSections: a centered
// header block, an optional headline, then titled sections recognised by
// their headings.
package render
