package model

import (
	"fmt"
	"strings"
)

// Page is the server's page envelope
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	Size             int   `json:"size"`
	Number           int   `json:"number"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	NumberOfElements int   `json:"numberOfElements"`
	Empty            bool  `json:"empty"`
}

// SinglePage wraps a complete result, as returned by search
func SinglePage[T any](items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 1
	if len(items) == 0 {
		totalPages = 0
	}
	return Page[T]{
		Content:          items,
		TotalElements:    int64(len(items)),
		TotalPages:       totalPages,
		Size:             len(items),
		First:            true,
		Last:             true,
		NumberOfElements: len(items),
		Empty:            len(items) == 0,
	}
}

// Direction of a sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec is a "field,direction" sort
type SortSpec struct {
	Field     string
	Direction Direction
}

// ParseSort parses "field[,asc|desc]"; the direction defaults to asc
func ParseSort(s string) (SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortSpec{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > 2 || strings.TrimSpace(parts[0]) == "" {
		return SortSpec{}, fmt.Errorf("invalid sort %q", s)
	}
	order := SortSpec{Field: strings.TrimSpace(parts[0]), Direction: Asc}
	if len(parts) == 2 {
		switch Direction(strings.ToLower(strings.TrimSpace(parts[1]))) {
		case Asc:
		case Desc:
			order.Direction = Desc
		default:
			return SortSpec{}, fmt.Errorf("invalid sort direction in %q", s)
		}
	}
	return order, nil
}

// IsZero reports whether no sort is set
func (s SortSpec) IsZero() bool { return s.Field == "" }

func (s SortSpec) String() string {
	if s.IsZero() {
		return ""
	}
	dir := s.Direction
	if dir == "" {
		dir = Asc
	}
	return s.Field + "," + string(dir)
}

// PageRequest selects one page of a sorted list. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
	Sort SortSpec
}
