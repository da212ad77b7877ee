package errx

import "errors"

// HTTPErrorResponse is the JSON body the boundary layer writes for an error.
type HTTPErrorResponse struct {
	StatusCode int            `json:"status_code"`
	ErrorCode  string         `json:"error_code"`
	Type       string         `json:"type"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
}

// ToHTTPResponse converts the error into its transport representation.
func (e *Error) ToHTTPResponse() HTTPErrorResponse {
	return HTTPErrorResponse{
		StatusCode: e.HTTPStatus,
		ErrorCode:  e.Code,
		Type:       string(e.Type),
		Message:    e.Message,
		Details:    e.Details,
	}
}

// AsHTTPResponse maps any error to its transport representation. Non-errx
// errors become an opaque internal error so infrastructure details never leak
// to clients.
func AsHTTPResponse(err error) HTTPErrorResponse {
	var e *Error
	if errors.As(err, &e) {
		return e.ToHTTPResponse()
	}
	return Internal("An unexpected error occurred").ToHTTPResponse()
}
