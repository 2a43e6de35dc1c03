// Package entry is the catalog's write-ahead log. Every accepted mutation
// is framed, checksummed and appended to a segment file before it is
// applied, so the catalog can be rebuilt after a restart.
package entry
