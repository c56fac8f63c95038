package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Short aliases used pervasively at call sites.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
)

// Reference Data Error Codes
const (
	ErrCodeReferenceDataMissing ErrorCode = "REF_001"
	ErrCodeReferenceParseFailed ErrorCode = "REF_002"
	ErrCodeReferenceDownload    ErrorCode = "REF_003"
	ErrCodeIndexBuildFailed     ErrorCode = "REF_004"
	ErrCodeIndexNotLoaded       ErrorCode = "REF_005"
)

// Factor Resolution Error Codes
const (
	ErrCodeFactorUnresolved     ErrorCode = "FAC_001"
	ErrCodeFactorRetryExhausted ErrorCode = "FAC_002"
	ErrCodeFactorMalformed      ErrorCode = "FAC_003"
)

// Ontology Resolution Error Codes
const (
	ErrCodeOntologyUnresolved   ErrorCode = "ONT_001"
	ErrCodeOntologySlotInvalid  ErrorCode = "ONT_002"
	ErrCodeOntologyMalformed    ErrorCode = "ONT_003"
	ErrCodeOntologyCollapseFail ErrorCode = "ONT_004"
)

// Oracle Error Codes
const (
	ErrCodeOracleUnavailable   ErrorCode = "ORC_001"
	ErrCodeOracleCallFailed    ErrorCode = "ORC_002"
	ErrCodeOracleBadResponse   ErrorCode = "ORC_003"
	ErrCodeOracleProviderUnset ErrorCode = "ORC_004"
	ErrCodeOracleRateLimited   ErrorCode = "ORC_005"
)

// Record Store Error Codes
const (
	ErrCodeRecordNotFound    ErrorCode = "REC_001"
	ErrCodeRecordFetchFailed ErrorCode = "REC_002"
	ErrCodeRecordParseFailed ErrorCode = "REC_003"
	ErrCodeMissingContext    ErrorCode = "REC_004"
)

// Annotation Store Error Codes
const (
	ErrCodeAnnotationNotFound   ErrorCode = "ANN_001"
	ErrCodeAnnotationSaveFailed ErrorCode = "ANN_002"
	ErrCodeAnnotationConflict   ErrorCode = "ANN_003"
)

// Job / Queue Error Codes
const (
	ErrCodeJobNotFound      ErrorCode = "JOB_001"
	ErrCodeJobEnqueueFailed ErrorCode = "JOB_002"
	ErrCodeJobDecodeFailed  ErrorCode = "JOB_003"
)

// Search Error Codes
const (
	ErrCodeSearchUnavailable ErrorCode = "SRCH_001"
	ErrCodeSearchQueryFailed ErrorCode = "SRCH_002"
	ErrCodeSearchIndexFailed ErrorCode = "SRCH_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeReferenceDataMissing: http.StatusServiceUnavailable,
	ErrCodeReferenceParseFailed: http.StatusInternalServerError,
	ErrCodeReferenceDownload:    http.StatusBadGateway,
	ErrCodeIndexBuildFailed:     http.StatusInternalServerError,
	ErrCodeIndexNotLoaded:       http.StatusServiceUnavailable,

	ErrCodeFactorUnresolved:     http.StatusUnprocessableEntity,
	ErrCodeFactorRetryExhausted: http.StatusUnprocessableEntity,
	ErrCodeFactorMalformed:      http.StatusBadRequest,

	ErrCodeOntologyUnresolved:   http.StatusUnprocessableEntity,
	ErrCodeOntologySlotInvalid:  http.StatusBadRequest,
	ErrCodeOntologyMalformed:    http.StatusBadRequest,
	ErrCodeOntologyCollapseFail: http.StatusInternalServerError,

	ErrCodeOracleUnavailable:   http.StatusServiceUnavailable,
	ErrCodeOracleCallFailed:    http.StatusBadGateway,
	ErrCodeOracleBadResponse:   http.StatusBadGateway,
	ErrCodeOracleProviderUnset: http.StatusInternalServerError,
	ErrCodeOracleRateLimited:   http.StatusTooManyRequests,

	ErrCodeRecordNotFound:    http.StatusNotFound,
	ErrCodeRecordFetchFailed: http.StatusBadGateway,
	ErrCodeRecordParseFailed: http.StatusUnprocessableEntity,
	ErrCodeMissingContext:    http.StatusNotFound,

	ErrCodeAnnotationNotFound:   http.StatusNotFound,
	ErrCodeAnnotationSaveFailed: http.StatusInternalServerError,
	ErrCodeAnnotationConflict:   http.StatusConflict,

	ErrCodeJobNotFound:      http.StatusNotFound,
	ErrCodeJobEnqueueFailed: http.StatusInternalServerError,
	ErrCodeJobDecodeFailed:  http.StatusBadRequest,

	ErrCodeSearchUnavailable: http.StatusServiceUnavailable,
	ErrCodeSearchQueryFailed: http.StatusInternalServerError,
	ErrCodeSearchIndexFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeReferenceDataMissing: "required reference data not loaded",
	ErrCodeReferenceParseFailed: "failed to parse reference corpus",
	ErrCodeReferenceDownload:    "failed to download reference corpus",
	ErrCodeIndexBuildFailed:     "failed to build lookup index",
	ErrCodeIndexNotLoaded:       "lookup index not loaded",

	ErrCodeFactorUnresolved:     "factor could not be resolved",
	ErrCodeFactorRetryExhausted: "factor recheck budget exhausted",
	ErrCodeFactorMalformed:      "factor candidate is empty after normalization",

	ErrCodeOntologyUnresolved:   "ontology term could not be resolved",
	ErrCodeOntologySlotInvalid:  "unknown ontology slot",
	ErrCodeOntologyMalformed:    "ontology candidate is empty after normalization",
	ErrCodeOntologyCollapseFail: "failed to collapse ontology matches",

	ErrCodeOracleUnavailable:   "extraction oracle unavailable",
	ErrCodeOracleCallFailed:    "extraction oracle call failed",
	ErrCodeOracleBadResponse:   "extraction oracle returned malformed response",
	ErrCodeOracleProviderUnset: "no oracle provider configured",
	ErrCodeOracleRateLimited:   "extraction oracle rate limited",

	ErrCodeRecordNotFound:    "record not found",
	ErrCodeRecordFetchFailed: "failed to fetch record",
	ErrCodeRecordParseFailed: "failed to parse record",
	ErrCodeMissingContext:    "no context records available for identifier",

	ErrCodeAnnotationNotFound:   "annotation not found",
	ErrCodeAnnotationSaveFailed: "failed to persist annotation",
	ErrCodeAnnotationConflict:   "annotation already exists",

	ErrCodeJobNotFound:      "job not found",
	ErrCodeJobEnqueueFailed: "failed to enqueue extraction job",
	ErrCodeJobDecodeFailed:  "failed to decode extraction job",

	ErrCodeSearchUnavailable: "search backend unavailable",
	ErrCodeSearchQueryFailed: "annotation search failed",
	ErrCodeSearchIndexFailed: "failed to index annotation",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
