// Package kafka wraps a segmentio/kafka-go writer as a check-event
// publisher.
package kafka
