package snapshot

import "time"

type Snapshot struct {
	Seq     uint64
	Created time.Time
	Entries []Entry
}

// Entry holds every signature of one extension in insertion order.
type Entry struct {
	Extension  string
	Signatures []string
	Length     int
}

const fileName = "snapshot.bin"
