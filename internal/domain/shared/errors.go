package shared

// DomainError carries a stable machine-readable code alongside the
// message. Services return these for business rule violations; the HTTP
// layer maps the code onto a status code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// ErrNotFound is what repositories return on a missed lookup, shared so
// services can branch on it without knowing the storage layer.
var ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")
