// Package rbtree implements a red-black tree keyed by string that merges
// repeated keys into a single node holding an ordered list of values.
//
// Each node also carries an integer attribute fixed by the first insert of
// its key. Removal locates its target through the first stored value of
// each node rather than through the key. The tree is single-writer and
// does no locking; callers serialize access.
package rbtree
