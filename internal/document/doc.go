// Package document parses and re-encodes the resolved JSON configuration.
//
// Parsing is strict by default: one top-level object, no trailing commas,
// no trailing content. Object key order is preserved and duplicate keys are
// accepted with last-key-wins semantics, but every duplicate is recorded so
// callers can report it. Numbers are kept as json.Number literals so a
// re-encoded document carries exactly the values the template produced.
package document
