package errors

import "net/http"

// Error codes carry meaning; messages are for operators and always English.

// Source adapter error codes.
const (
	CodeSourceFetchFailed  = "SOURCE_FETCH_FAILED"
	CodeSourceResultCode   = "SOURCE_RESULT_CODE"
	CodeSourceDecodeFailed = "SOURCE_DECODE_FAILED"
	CodeSourceUnavailable  = "SOURCE_UNAVAILABLE"
	CodeUnknownSource      = "UNKNOWN_SOURCE"
)

// Mapping and persistence error codes.
const (
	CodeItemMappingFailed  = "ITEM_MAPPING_FAILED"
	CodeEventPersistFailed = "EVENT_PERSIST_FAILED"
	CodeEventNotFound      = "EVENT_NOT_FOUND"
)

// Job queue error codes.
const (
	CodeJobQueueUnavailable = "JOB_QUEUE_UNAVAILABLE"
	CodeEnqueueFailed       = "ENQUEUE_FAILED"
)

// Request validation error codes.
const (
	CodeInvalidIngestParams = "INVALID_INGEST_PARAMS"
	CodeInvalidQuery        = "INVALID_QUERY"
)

// ErrEventNotFound creates a 404 for a public event lookup.
func ErrEventNotFound(id string) *AppError {
	return NotFound(CodeEventNotFound, "public event not found").
		WithParams(map[string]interface{}{"id": id})
}

// ErrInvalidIngestParams creates a 400 for a malformed trigger request.
func ErrInvalidIngestParams(err error) *AppError {
	return Wrap(err, CodeInvalidIngestParams, "invalid ingestion parameters", http.StatusBadRequest)
}

// ErrUnknownSource creates a 404 for a trigger naming a source that is not configured.
func ErrUnknownSource(name string) *AppError {
	return NotFound(CodeUnknownSource, "unknown data source: "+name).
		WithParams(map[string]interface{}{"source": name})
}
