package model

import (
	"errors"
	"math"
)

// Pagination defaults.
const (
	DefaultSkip  = 0
	DefaultLimit = 10
	DefaultPage  = 1
)

// Pagination errors.
var (
	ErrNegativeSkip  = errors.New("skip must be greater than or equal to 0")
	ErrNegativeLimit = errors.New("limit must be greater than or equal to 0")
	ErrInvalidPage   = errors.New("page must be greater than or equal to 1")
	ErrPageTooLarge  = errors.New("page is out of range for the requested size")
)

// Pagination is a resolved skip/limit window.
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// SkipLimit validates a skip/limit pair and caps limit at maximum.
func SkipLimit(skip, limit, maximum int) (Pagination, error) {
	if skip < 0 {
		return Pagination{}, ErrNegativeSkip
	}
	if limit < 0 {
		return Pagination{}, ErrNegativeLimit
	}
	return Pagination{Skip: skip, Limit: min(maximum, limit)}, nil
}

// PageSize is a resolved page/size window.
type PageSize struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// NewPageSize validates a page/size pair and caps size at maximum.
func NewPageSize(page, size, maximum int) (PageSize, error) {
	if page < 1 {
		return PageSize{}, ErrInvalidPage
	}
	if size < 0 {
		return PageSize{}, ErrNegativeLimit
	}
	size = min(maximum, size)
	if page > MaxPage(size) {
		return PageSize{}, ErrPageTooLarge
	}
	return PageSize{Page: page, Size: size}, nil
}

// MaxPage is the last page whose skip still fits in an int.
func MaxPage(size int) int {
	if size <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / size
}

// Window converts a page/size pair into the equivalent skip/limit.
func (p PageSize) Window() Pagination {
	return Pagination{Skip: (p.Page - 1) * p.Size, Limit: p.Size}
}
