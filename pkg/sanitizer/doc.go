// Package sanitizer normalizes untrusted string input before it reaches
// validation and storage. Strategies compose into pipelines so each field
// type declares its own cleaning order.
package sanitizer
