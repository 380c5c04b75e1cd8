// Package screening decides whether a fetched author profile belongs to the requested
// candidate and whether its affiliation records, or those of recent co-authors, touch a
// flagged country.
//
// Everything here is pure: no I/O, no logging, no shared mutable state. Fetching,
// pacing and output live with the callers.
package screening
