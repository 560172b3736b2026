package bark

import (
	"fmt"

	"github.com/sre-norns/gantry/pkg/manifest"
)

// Pagination is a standard piece of a search query to keep responses bounded
type Pagination struct {
	Offset uint `uri:"offset" form:"offset" json:"offset,omitempty" yaml:"offset,omitempty"`
	Limit  uint `uri:"limit" form:"limit" json:"limit,omitempty" yaml:"limit,omitempty"`
}

func (p Pagination) ClampLimit(maxLimit uint) Pagination {
	if p.Limit == 0 || p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	return p
}

type SearchQuery struct {
	Pagination `uri:",inline" form:",inline"`

	// Name, if set, narrows the search to resources with the exact name
	Name string `uri:"name" form:"name" json:"name,omitempty" yaml:"name,omitempty"`
}

// ResourceRequest identifies a single resource referred in the path
type ResourceRequest struct {
	ID manifest.ResourceID `uri:"id" form:"id" binding:"required"`
}

// VersionQuery is a set of query params for a versioned resource
type VersionQuery struct {
	Version manifest.Version `uri:"version" form:"version"`
}

// CreatedResponse returns information about a newly created resource
type CreatedResponse struct {
	manifest.TypeMeta            `json:",inline" yaml:",inline"`
	manifest.VersionedResourceID `json:",inline" yaml:",inline"`
}

type PaginatedResponse[T any] struct {
	Pagination `json:",inline" yaml:",inline"`

	Count int `json:"count" yaml:"count"`
	Data  []T `json:"data" yaml:"data"`
}

func NewPaginatedResponse[T any](data []T, pagination Pagination) PaginatedResponse[T] {
	return PaginatedResponse[T]{
		Pagination: pagination,
		Count:      len(data),
		Data:       data,
	}
}

// ErrorResponse is a standard error shape returned by all API endpoints
type ErrorResponse struct {
	Code    int    `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func NewErrorResponse(code int, err error) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: err.Error(),
	}
}
