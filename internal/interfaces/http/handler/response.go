package handler

import "github.com/erp/procurement/internal/interfaces/http/dto"

// APIResponse is the envelope every endpoint returns, declared here so
// swag can generate typed schemas per endpoint.
// @Description Response envelope with a typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse documents the envelope of failed requests.
// @Description Error response with a machine-readable code
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
