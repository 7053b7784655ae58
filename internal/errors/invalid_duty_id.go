package errors

import "net/http"

var ErrInvalidDutyID = &Exception{
	Kind:       KindValidation,
	Message:    "invalid duty id",
	StatusCode: http.StatusBadRequest,
}
