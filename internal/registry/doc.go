// Package registry holds the bot's single live configuration record.
//
// Read returns the stored Config or DefaultConfig when nothing is stored
// (or the entry expired). Apply sanitizes an untyped patch, keeps only the
// known numeric fields, and merges them onto the current record. A patch
// with no usable fields is rejected with ErrRejected and never touches the
// store.
package registry
