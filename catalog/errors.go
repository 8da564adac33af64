package catalog

import (
	"fmt"
	"net/http"
)

// Messages returned to API clients.
const (
	MsgInvalidPagination = "Invalid pagination parameters"
	MsgTitleRequired     = "Query parameter 'title' is required"
	MsgBookNotFound      = "Book not found"
)

// ValidationError reports malformed or missing query input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// HTTPStatus returns the status the API answers with.
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError reports an id that no record carries.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book %d: not found", e.ID)
}

// HTTPStatus returns the status the API answers with.
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// ClientMessage returns the text shown in the response body.
func (e *ValidationError) ClientMessage() string {
	return e.Message
}

// ClientMessage returns the text shown in the response body.
func (e *NotFoundError) ClientMessage() string {
	return MsgBookNotFound
}
