package api_error

type JSONAPIError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details string `json:"details"`
}
