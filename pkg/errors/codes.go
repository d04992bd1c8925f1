package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
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
	ErrCodeUnknown            ErrorCode = "COMMON_999"

	// CodeOK is the sentinel returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"
)

// Admission error codes.  Both are rejected synchronously before any cost is
// incurred.
const (
	ErrCodeInsufficientCredits ErrorCode = "ADM_001"
	ErrCodeConcurrencyLimit    ErrorCode = "ADM_002"
	ErrCodeUploadTooLarge      ErrorCode = "ADM_003"
	ErrCodeVideoTooLong        ErrorCode = "ADM_004"
)

// Credit ledger error codes
const (
	ErrCodeInsufficientBalance ErrorCode = "LED_001"
	ErrCodeLedgerKeyConflict   ErrorCode = "LED_002"
	ErrCodeInvalidAmount       ErrorCode = "LED_003"
	ErrCodeAccountNotFound     ErrorCode = "LED_004"
)

// Job / orchestration error codes
const (
	ErrCodeJobNotFound       ErrorCode = "JOB_001"
	ErrCodeJobNotCancelable  ErrorCode = "JOB_002"
	ErrCodeJobTimeout        ErrorCode = "JOB_003"
	ErrCodeAllBranchesFailed ErrorCode = "JOB_004"
	ErrCodeInvalidTransition ErrorCode = "JOB_005"
	ErrCodeJobCanceled       ErrorCode = "JOB_006"
	ErrCodeReportNotFound    ErrorCode = "JOB_007"
)

// External collaborator error codes
const (
	ErrCodeCollaboratorTimeout   ErrorCode = "EXT_001"
	ErrCodeCollaboratorQuota     ErrorCode = "EXT_002"
	ErrCodeCollaboratorMalformed ErrorCode = "EXT_003"
	ErrCodeStorageError          ErrorCode = "EXT_004"
	ErrCodeAnnotationFailed      ErrorCode = "EXT_005"
	ErrCodeEvaluationFailed      ErrorCode = "EXT_006"
)

// Billing / settlement error codes
const (
	ErrCodeInvalidSignature ErrorCode = "BIL_001"
	ErrCodeUnknownPack      ErrorCode = "BIL_002"
	ErrCodeCheckoutFailed   ErrorCode = "BIL_003"
)

// HTTPStatus maps an ErrorCode to the HTTP status the interfaces layer should
// return for it.  Codes without an explicit mapping fall back to 500.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidAmount,
		ErrCodeVideoTooLong, ErrCodeUnknownPack, ErrCodeInvalidTransition:
		return http.StatusBadRequest
	case ErrCodeUnauthorized, ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodeJobNotFound, ErrCodeReportNotFound,
		ErrCodeAccountNotFound:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodeLedgerKeyConflict, ErrCodeJobNotCancelable:
		return http.StatusConflict
	case ErrCodeInsufficientCredits, ErrCodeInsufficientBalance:
		return http.StatusPaymentRequired
	case ErrCodeUploadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeConcurrencyLimit, ErrCodeTooManyRequests, ErrCodeCollaboratorQuota:
		return http.StatusTooManyRequests
	case ErrCodeTimeout, ErrCodeJobTimeout, ErrCodeCollaboratorTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
