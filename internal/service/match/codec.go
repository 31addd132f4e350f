package match

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	apperr "github.com/david-shiko/rubik-sub000/internal/errors"
)

// Requests and responses are google.protobuf.Struct messages. Ids travel as
// decimal strings, numbers are also accepted.

func uintField(in *structpb.Struct, name string) (uint64, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, apperr.Invalid(name, "is required")
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		id, err := strconv.ParseUint(k.StringValue, 10, 64)
		if err != nil {
			return 0, apperr.Invalid(name, "must be a valid uint64")
		}
		return id, nil
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n < 0 || n != math.Trunc(n) {
			return 0, apperr.Invalid(name, "must be a valid uint64")
		}
		return uint64(n), nil
	default:
		return 0, apperr.Invalid(name, "must be a valid uint64")
	}
}

// intField returns the integer value of name and whether it was present.
func intField(in *structpb.Struct, name string) (int, bool, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, false, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) {
			return 0, true, apperr.Invalid(name, "must be an integer")
		}
		return int(k.NumberValue), true, nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(k.StringValue)
		if err != nil {
			return 0, true, apperr.Invalid(name, "must be an integer")
		}
		return n, true, nil
	default:
		return 0, true, apperr.Invalid(name, "must be an integer")
	}
}

func boolField(in *structpb.Struct, name string) bool {
	return in.GetFields()[name].GetBoolValue()
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func uintList(in *structpb.Struct, name string) ([]uint64, error) {
	list := in.GetFields()[name].GetListValue()
	out := make([]uint64, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		item := &structpb.Struct{Fields: map[string]*structpb.Value{name: v}}
		id, err := uintField(item, name)
		if err != nil {
			return nil, apperr.Invalid(fmt.Sprintf("%s[%d]", name, i), "must be a valid uint64")
		}
		out = append(out, id)
	}
	return out, nil
}

func idString(id uint64) string { return strconv.FormatUint(id, 10) }

func response(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
