package entry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrCRCMismatch   = errors.New("wal: crc mismatch")
	ErrNonMonotonic  = errors.New("wal: non-monotonic sequence")
	ErrTruncatedData = errors.New("wal: truncated record")
)

type ReplayHandler func(*Record) error

// Replay reads every segment in dir in order and hands records with
// Seq > after to fn. It returns the highest sequence number seen. A torn
// record at the tail of the newest segment ends the replay cleanly.
func Replay(dir string, after uint64, fn ReplayHandler) (lastSeq uint64, err error) {
	segs, err := listSegments(dir)
	if err != nil {
		return 0, err
	}

	lastSeq = after
	var prev uint64
	for i, idx := range segs {
		tail := i == len(segs)-1
		prev, err = replaySegment(segmentPath(dir, idx), prev, tail, func(rec *Record) error {
			if rec.Seq <= after {
				return nil
			}
			lastSeq = rec.Seq
			return fn(rec)
		})
		if err != nil {
			return lastSeq, fmt.Errorf("segment %d: %w", idx, err)
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, prev uint64, tail bool, fn ReplayHandler) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return prev, err
	}
	defer f.Close()

	for {
		rec, err := readRecord(f)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return prev, nil
			}
			if tail && errors.Is(err, ErrTruncatedData) {
				return prev, nil
			}
			return prev, err
		}

		if rec.Seq <= prev {
			return prev, fmt.Errorf("%w: %d after %d", ErrNonMonotonic, rec.Seq, prev)
		}
		prev = rec.Seq

		if err := fn(rec); err != nil {
			return prev, err
		}
	}
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncatedData
		}
		return nil, err
	}

	l := binary.BigEndian.Uint32(header[17:21])
	data := make([]byte, int(l)+crcSize)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncatedData
		}
		return nil, err
	}

	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])
	if checksum(append(header, payload...)) != crc {
		return nil, ErrCRCMismatch
	}

	return &Record{
		Type: RecordType(header[0]),
		Seq:  binary.BigEndian.Uint64(header[1:9]),
		Time: int64(binary.BigEndian.Uint64(header[9:17])),
		Data: payload,
	}, nil
}
