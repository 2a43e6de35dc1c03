package exit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type ExitState uint8

const (
	StateNew ExitState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s ExitState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

var (
	ErrNotFound      = errors.New("exit: record not found")
	ErrInvalidRecord = errors.New("exit: invalid record")
)

type ExitRecord struct {
	Seq         uint64
	State       ExitState
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const recordHeader = 1 + 4 + 8

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r ExitRecord) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (ExitRecord, error) {
	if len(b) < recordHeader {
		return ExitRecord{}, fmt.Errorf("%w: length %d", ErrInvalidRecord, len(b))
	}
	payload := make([]byte, len(b)-recordHeader)
	copy(payload, b[recordHeader:])
	return ExitRecord{
		Seq:         seq,
		State:       ExitState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- WAL --------------------

type ExitWAL struct {
	db *pebble.DB
}

func Open(dir string) (*ExitWAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}
	return &ExitWAL{db: db}, nil
}

func (w *ExitWAL) Close() error {
	return w.db.Close()
}

// -------------------- API --------------------

// PutNew stores a result payload awaiting publication.
func (w *ExitWAL) PutNew(seq uint64, payload []byte) error {
	return w.put(ExitRecord{Seq: seq, State: StateNew, Payload: payload})
}

func (w *ExitWAL) Get(seq uint64) (ExitRecord, error) {
	val, closer, err := w.db.Get(keyFor(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return ExitRecord{}, fmt.Errorf("seq %d: %w", seq, ErrNotFound)
	}
	if err != nil {
		return ExitRecord{}, err
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

func (w *ExitWAL) MarkSent(seq uint64) error {
	return w.transition(seq, StateSent, false)
}

func (w *ExitWAL) MarkAcked(seq uint64) error {
	return w.transition(seq, StateAcked, false)
}

// MarkFailed records a failed attempt and bumps the retry count.
func (w *ExitWAL) MarkFailed(seq uint64) error {
	return w.transition(seq, StateFailed, true)
}

func (w *ExitWAL) transition(seq uint64, state ExitState, failed bool) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.LastAttempt = time.Now().UnixNano()
	if failed {
		rec.Retries++
	}
	return w.put(rec)
}

func (w *ExitWAL) put(rec ExitRecord) error {
	return w.db.Set(keyFor(rec.Seq), encodeRecord(rec), pebble.Sync)
}

// -------------------- Scan --------------------

// ScanByState visits records in the given state in sequence order.
func (w *ExitWAL) ScanByState(state ExitState, fn func(rec ExitRecord) error) error {
	return w.scan(func(rec ExitRecord) error {
		if rec.State != state {
			return nil
		}
		return fn(rec)
	})
}

// ScanPending visits NEW and SENT records, plus FAILED ones that have been
// retried fewer than maxRetries times. SENT is included because a crash
// between send and ack leaves records there.
func (w *ExitWAL) ScanPending(maxRetries uint32, fn func(rec ExitRecord) error) error {
	return w.scan(func(rec ExitRecord) error {
		switch rec.State {
		case StateNew, StateSent:
			return fn(rec)
		case StateFailed:
			if rec.Retries < maxRetries {
				return fn(rec)
			}
		}
		return nil
	})
}

// LastSeq returns the highest sequence stored, or 0 when empty.
func (w *ExitWAL) LastSeq() (uint64, error) {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

// TruncateAckedUpTo deletes ACKED records with seq <= upTo and returns
// how many were removed.
func (w *ExitWAL) TruncateAckedUpTo(upTo uint64) (int, error) {
	b := w.db.NewBatch()
	defer b.Close()

	n := 0
	err := w.scan(func(rec ExitRecord) error {
		if rec.Seq > upTo || rec.State != StateAcked {
			return nil
		}
		n++
		return b.Delete(keyFor(rec.Seq), nil)
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, b.Commit(pebble.Sync)
}

func (w *ExitWAL) scan(fn func(rec ExitRecord) error) error {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Helpers --------------------

const keyPrefix = "check/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(string(b), keyPrefix), 10, 64)
}
