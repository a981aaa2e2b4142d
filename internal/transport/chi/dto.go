package chi

import "time"

// Request/response bodies for the JSON API.

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Answer     string `json:"answer"`
	Intent     string `json:"intent"`
	DataSource string `json:"data_source"`
}

type turnResponse struct {
	ID         int64     `json:"id"`
	Message    string    `json:"message"`
	Answer     string    `json:"answer"`
	Intent     string    `json:"intent"`
	DataSource string    `json:"data_source"`
	CreatedAt  time.Time `json:"created_at"`
}

type historyResponse struct {
	Items []turnResponse `json:"items"`
}

type ingestRequest struct {
	SourceID    string `json:"source_id"`
	Text        string `json:"text"`
	ContentType string `json:"content_type,omitempty"`
}

type ingestResponse struct {
	SourceID string `json:"source_id"`
	Chunks   int    `json:"chunks"`
}

type statsResponse struct {
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned to clients.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeUnauthorized        = "unauthorized"
	codeNotFound            = "not_found"
	codeCollectionNotFound  = "collection_not_found"
	codeVectorDimMismatch   = "vector_dim_mismatch"
	codeProviderUnavailable = "provider_unavailable"
	codeStoreUnavailable    = "store_unavailable"
	codeInternalError       = "internal_error"
)
