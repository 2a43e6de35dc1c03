// Package signature matches files against a catalog of known leading-byte
// signatures, indexed by file extension.
package signature
