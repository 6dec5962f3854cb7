package errors

// Error codes for standardized error responses. Anti-fraud rejections use the
// rejection code itself as the error value.
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Rate limiting
	ErrCodeRateLimited = "rate_limited"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Ranking errors
	ErrCodeSessionStartFailed = "session_start_failed"
	ErrCodeSubmitFailed       = "submit_failed"
	ErrCodeRankingFetchFailed = "ranking_fetch_failed"
	ErrCodeUnknownRankingType = "unknown_ranking_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
