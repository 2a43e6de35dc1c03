package entry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAL_AppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	// --- write phase ---
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	const n = 100
	for i := 1; i <= n; i++ {
		typ := RecordInsert
		if i%10 == 0 {
			typ = RecordRemove
		}
		require.NoError(t, w.Append(NewRecord(typ, uint64(i), []byte(fmt.Sprintf("png,%04X,4", i)))))
	}
	require.NoError(t, w.Close())

	// --- replay phase ---
	var got []*Record
	last, err := Replay(dir, 0, func(r *Record) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(n), last)
	require.Len(t, got, n)
	assert.Equal(t, RecordRemove, got[9].Type)
	assert.Equal(t, "png,0001,4", string(got[0].Data))
}

func TestWAL_ReplayAfter(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		require.NoError(t, w.Append(NewRecord(RecordInsert, uint64(i), nil)))
	}
	require.NoError(t, w.Close())

	count := 0
	last, err := Replay(dir, 7, func(r *Record) error {
		assert.Greater(t, r.Seq, uint64(7))
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, uint64(10), last)

	last, err = Replay(dir, 50, func(*Record) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(50), last)
}

func TestWAL_RotationAndResume(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		require.NoError(t, w.Append(NewRecord(RecordInsert, uint64(i), []byte("rotate-me-please"))))
	}
	require.NoError(t, w.Close())

	segs, err := listSegments(dir)
	require.NoError(t, err)
	require.Greater(t, len(segs), 2)

	// reopening appends to the newest segment, not segment 0
	w, err = Open(Config{Dir: dir, SegmentSize: 64})
	require.NoError(t, err)
	assert.Equal(t, segs[len(segs)-1], w.current.index)
	require.NoError(t, w.Append(NewRecord(RecordRemove, 11, []byte("x"))))
	require.NoError(t, w.Close())

	last, err := Replay(dir, 0, func(*Record) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(11), last)
}

func TestWAL_TruncateBefore(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	require.NoError(t, err)
	defer w.Close()

	for i := 1; i <= 12; i++ {
		require.NoError(t, w.Append(NewRecord(RecordInsert, uint64(i), []byte("payload-payload"))))
	}
	before, err := listSegments(dir)
	require.NoError(t, err)

	require.NoError(t, w.TruncateBefore(6))
	after, err := listSegments(dir)
	require.NoError(t, err)
	assert.Less(t, len(after), len(before))
	assert.Contains(t, after, w.current.index)

	var seqs []uint64
	_, err = Replay(dir, 6, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 8, 9, 10, 11, 12}, seqs)

	// everything covered: only the active segment survives
	require.NoError(t, w.TruncateBefore(100))
	after, err = listSegments(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{w.current.index}, after)
}

func TestWAL_ConcurrentAppendAndTruncate(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	require.NoError(t, err)
	defer w.Close()

	const n = 200
	var appended, bound atomic.Uint64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= n; i++ {
			assert.NoError(t, w.Append(NewRecord(RecordInsert, i, []byte("payload-payload"))))
			appended.Store(i)
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			b := appended.Load() / 2
			assert.NoError(t, w.TruncateBefore(b))
			bound.Store(b)
		}
	}()
	wg.Wait()

	var seqs []uint64
	_, err = Replay(dir, bound.Load(), func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seqs, int(n-bound.Load()))
	assert.Equal(t, bound.Load()+1, seqs[0])
	assert.Equal(t, uint64(n), seqs[len(seqs)-1])
}

func TestWAL_CRCIntegrity(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Append(NewRecord(RecordInsert, 1, []byte("valid-record"))))
	require.NoError(t, w.Close())

	f, err := os.OpenFile(segmentPath(dir, 0), os.O_RDWR, 0)
	require.NoError(t, err)
	// corrupt the payload to break the CRC
	_, err = f.WriteAt([]byte{0xFF, 0xFF, 0xFF, 0xFF}, headerSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Replay(dir, 0, func(*Record) error {
		t.Fatal("corrupt record must not be applied")
		return nil
	})
	assert.ErrorIs(t, err, ErrCRCMismatch)
}

func TestWAL_TornTailIgnored(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Append(NewRecord(RecordInsert, 1, []byte("first"))))
	require.NoError(t, w.Append(NewRecord(RecordInsert, 2, []byte("second"))))
	require.NoError(t, w.Close())

	path := segmentPath(dir, 0)
	st, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, st.Size()-3))

	count := 0
	last, err := Replay(dir, 0, func(*Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, uint64(1), last)
}

func TestWAL_NonMonotonic(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Append(NewRecord(RecordInsert, 5, nil)))
	require.NoError(t, w.Append(NewRecord(RecordInsert, 3, nil)))
	require.NoError(t, w.Close())

	_, err = Replay(dir, 0, func(*Record) error { return nil })
	assert.ErrorIs(t, err, ErrNonMonotonic)
}

func TestWAL_ReplayEmptyDir(t *testing.T) {
	last, err := Replay(filepath.Join(t.TempDir(), "absent"), 4, func(*Record) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(4), last)
}
