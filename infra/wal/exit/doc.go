// Package exit is the durable outbox for check results. Results are
// stored in pebble as NEW before any publish attempt and move through
// SENT to ACKED (or FAILED) as the broadcaster works through them.
package exit
