// Package service is the only entry point that mutates the signature
// catalog. It serializes access to the tree, journals every mutation to
// the entry WAL before applying it, and queues check results in the
// outbox for the broadcaster.
//
// It is decoupled from transports such as gRPC and from the CLI.
package service
