package dto

// DataResponse wraps every successful payload: {"data": ...}.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Status  int      `json:"status"`
	Details []string `json:"details,omitempty"`
}
