package grpcserver

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

var errField = errors.New("invalid field")

// -------------------- Struct readers --------------------

func stringField(st *structpb.Struct, name string) (string, error) {
	v, ok := st.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: %q is required", errField, name)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", errField, name)
	}
	return s.StringValue, nil
}

func intField(st *structpb.Struct, name string) (int, error) {
	v, ok := st.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q is required", errField, name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %q must be a number", errField, name)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q must be an integer", errField, name)
	}
	return int(n.NumberValue), nil
}

func boolField(st *structpb.Struct, name string) (bool, error) {
	v, ok := st.GetFields()[name]
	if !ok {
		return false, fmt.Errorf("%w: %q is required", errField, name)
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%w: %q must be a bool", errField, name)
	}
	return b.BoolValue, nil
}

// Sequence numbers travel as decimal strings; a Struct number is a double.
func seqField(st *structpb.Struct, name string) (uint64, error) {
	s, err := stringField(st, name)
	if err != nil {
		return 0, err
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", errField, name, err)
	}
	return seq, nil
}

func stringsField(st *structpb.Struct, name string) ([]string, error) {
	v, ok := st.GetFields()[name]
	if !ok {
		return nil, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a list", errField, name)
	}
	out := make([]string, 0, len(list.ListValue.GetValues()))
	for i, item := range list.ListValue.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %q[%d] must be a string", errField, name, i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// -------------------- Struct writers --------------------

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func formatSeq(seq uint64) string {
	return strconv.FormatUint(seq, 10)
}
