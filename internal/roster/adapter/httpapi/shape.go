package httpapi

import (
	"encoding/json"

	sharederrors "roster-console/internal/shared/errors"

	"github.com/tidwall/gjson"
)

// Shape tags how a list response was recognized
type Shape int

const (
	// ShapeUnrecognized means neither a list nor a wrapped list
	ShapeUnrecognized Shape = iota
	// ShapeList is a bare JSON array
	ShapeList
	// ShapeWrapped is an object holding the array under a key
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "unrecognized"
	}
}

// ListResult is the tagged outcome of NormalizeList
type ListResult[T any] struct {
	Items []T
	Shape Shape
}

// Ok reports whether the shape was recognized
func (r ListResult[T]) Ok() bool {
	return r.Shape != ShapeUnrecognized
}

// NormalizeList accepts a bare array or an object wrapping the array under
// key. Anything else is ShapeUnrecognized with an empty list. Elements that
// fail to decode are a transport error.
func NormalizeList[T any](raw []byte, key string) (ListResult[T], error) {
	out := ListResult[T]{Items: []T{}}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return out, nil
	}

	doc := gjson.ParseBytes(raw)
	var arr gjson.Result
	switch {
	case doc.IsArray():
		arr, out.Shape = doc, ShapeList
	case doc.IsObject():
		inner := doc.Get(key)
		if !inner.IsArray() {
			return out, nil
		}
		arr, out.Shape = inner, ShapeWrapped
	default:
		return out, nil
	}

	if err := json.Unmarshal([]byte(arr.Raw), &out.Items); err != nil {
		return ListResult[T]{Items: []T{}}, sharederrors.NewTransportError("failed to decode list response", err).
			WithComponent("http-access")
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return out, nil
}
