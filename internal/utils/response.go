package utils

// Response is the success envelope. Data is always present; Warning marks
// fallback payloads served while the database is unreachable.
type Response struct {
	Data    interface{} `json:"data"`
	Warning string      `json:"warning,omitempty"`
	Message string      `json:"message,omitempty"`
	Status  string      `json:"status,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewSuccessResponse wraps data in the standard envelope.
func NewSuccessResponse(data interface{}) Response {
	return Response{Data: data}
}

// NewFallbackResponse marks data as coming from the fixed sample set.
func NewFallbackResponse(data interface{}, warning string) Response {
	return Response{Data: data, Warning: warning}
}

// NewErrorResponse creates an error envelope with no extra detail.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}
