// Package snapshot persists the catalog's records (never the tree shape)
// together with the WAL sequence they cover. On startup the newest
// snapshot replaces the signature file as the catalog's starting point and
// only WAL records after its sequence are replayed.
package snapshot
