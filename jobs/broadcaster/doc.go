// Package broadcaster drains the check-result outbox into Kafka. Records
// are marked SENT before publishing and ACKED after the broker confirms,
// so a crash in between republishes rather than loses a result.
package broadcaster
