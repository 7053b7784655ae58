package errors

import "net/http"

var ErrDutyNotFound = &Exception{
	Kind:       KindNotFound,
	Message:    "Duty not found",
	StatusCode: http.StatusNotFound,
}
