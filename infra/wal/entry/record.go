package entry

import "time"

type RecordType uint8

const (
	RecordInsert RecordType = iota + 1
	RecordRemove
)

func (t RecordType) String() string {
	switch t {
	case RecordInsert:
		return "INSERT"
	case RecordRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
