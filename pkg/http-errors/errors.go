package httpErrors

import (
	"errors"
	"net/http"

	dErrors "trustd/pkg/domain-errors"
)

// ToHTTPStatus maps a domain error code to the HTTP status the transport
// layer should return. Unknown codes map to 500 so nothing leaks as a 200.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation, dErrors.CodeChallengeExpired:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor resolves any error to (status, code). Non-domain errors are
// reported as internal so infrastructure details stay out of responses.
func StatusFor(err error) (int, dErrors.Code) {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return ToHTTPStatus(de.Code), de.Code
	}
	return http.StatusInternalServerError, dErrors.CodeInternal
}
