package entry

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"filesig/infra/memory"
)

const (
	headerSize         = 1 + 8 + 8 + 4
	crcSize            = 4
	defaultSegmentSize = 2 * 1024 * 1024
)

type Config struct {
	Dir         string
	SegmentSize int64
	// SyncEveryAppend fsyncs after each record.
	SyncEveryAppend bool
}

// WAL is safe for concurrent use; mu guards the active segment.
type WAL struct {
	dir      string
	segSize  int64
	syncEach bool

	mu      sync.Mutex
	current *segment
}

// Open resumes the newest segment in cfg.Dir, creating the directory and
// the first segment when needed.
func Open(cfg Config) (*WAL, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegmentSize
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create wal dir: %w", err)
	}

	segs, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	idx := 0
	if len(segs) > 0 {
		idx = segs[len(segs)-1]
	}

	seg, err := openSegment(cfg.Dir, idx)
	if err != nil {
		return nil, fmt.Errorf("open segment %d: %w", idx, err)
	}

	return &WAL{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		syncEach: cfg.SyncEveryAppend,
		current:  seg,
	}, nil
}

var frames = memory.NewBufferPool(256, 64<<10)

// encode writes the frame into buf, growing it when needed.
func encode(r *Record, buf []byte) []byte {
	payloadLen := uint32(len(r.Data))

	// Frame:
	// [type:1][seq:8][time:8][len:4][payload][crc:4]
	n := headerSize + int(payloadLen) + crcSize
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	crc := checksum(buf[:headerSize+int(payloadLen)])
	binary.BigEndian.PutUint32(buf[headerSize+int(payloadLen):], crc)
	return buf
}

func (w *WAL) Append(r *Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	bp := frames.Get()
	*bp = encode(r, *bp)
	err := w.current.append(*bp)
	frames.Put(bp)
	if err != nil {
		return fmt.Errorf("wal append seq %d: %w", r.Seq, err)
	}
	if w.syncEach {
		if err := w.current.sync(); err != nil {
			return fmt.Errorf("wal sync: %w", err)
		}
	}

	if w.current.offset >= w.segSize {
		return w.rotate()
	}
	return nil
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.current.sync(); err != nil {
		_ = w.current.close()
		return err
	}
	return w.current.close()
}

func (w *WAL) Dir() string { return w.dir }

// rotate is called with mu held.
func (w *WAL) rotate() error {
	if err := w.current.sync(); err != nil {
		return err
	}
	_ = w.current.close()

	seg, err := openSegment(w.dir, w.current.index+1)
	if err != nil {
		return fmt.Errorf("rotate wal: %w", err)
	}
	w.current = seg
	return nil
}

// TruncateBefore removes closed segments whose records all have
// seq <= seq. The active segment is always kept.
func (w *WAL) TruncateBefore(seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	segs, err := listSegments(w.dir)
	if err != nil {
		return err
	}

	for _, idx := range segs {
		if idx >= w.current.index {
			continue
		}
		path := segmentPath(w.dir, idx)
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove segment %d: %w", idx, err)
			}
		}
	}
	return nil
}
