package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"filesig/domain/signature"
)

// CheckEvent is the message published for every file check.
type CheckEvent struct {
	ID        string
	Seq       uint64
	Path      string
	Extension string
	Signature string
	Expected  []string
	Status    string
	Time      time.Time
}

func newCheckEvent(seq uint64, res signature.Result) CheckEvent {
	return CheckEvent{
		ID:        uuid.NewString(),
		Seq:       seq,
		Path:      res.Path,
		Extension: res.Extension,
		Signature: res.Signature,
		Expected:  res.Expected,
		Status:    res.Status.String(),
		Time:      time.Now().UTC(),
	}
}

// Marshal encodes the event as a protobuf Struct.
func (e CheckEvent) Marshal() ([]byte, error) {
	expected := make([]any, len(e.Expected))
	for i, s := range e.Expected {
		expected[i] = s
	}
	st, err := structpb.NewStruct(map[string]any{
		"v":         1,
		"id":        e.ID,
		"seq":       strconv.FormatUint(e.Seq, 10),
		"path":      e.Path,
		"extension": e.Extension,
		"signature": e.Signature,
		"expected":  expected,
		"status":    e.Status,
		"time":      e.Time.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("build event: %w", err)
	}
	return proto.Marshal(st)
}

func UnmarshalCheckEvent(b []byte) (CheckEvent, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return CheckEvent{}, fmt.Errorf("decode event: %w", err)
	}
	f := st.GetFields()

	var e CheckEvent
	e.ID = f["id"].GetStringValue()
	seq, err := strconv.ParseUint(f["seq"].GetStringValue(), 10, 64)
	if err != nil {
		return CheckEvent{}, fmt.Errorf("decode event seq: %w", err)
	}
	e.Seq = seq
	e.Path = f["path"].GetStringValue()
	e.Extension = f["extension"].GetStringValue()
	e.Signature = f["signature"].GetStringValue()
	e.Status = f["status"].GetStringValue()
	for _, v := range f["expected"].GetListValue().GetValues() {
		e.Expected = append(e.Expected, v.GetStringValue())
	}
	ts, err := time.Parse(time.RFC3339Nano, f["time"].GetStringValue())
	if err != nil {
		return CheckEvent{}, fmt.Errorf("decode event time: %w", err)
	}
	e.Time = ts
	return e, nil
}
