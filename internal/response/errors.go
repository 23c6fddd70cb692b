package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrQuizMasterOnly  ErrCode = "QUIZ_MASTER_ONLY"
	ErrNotQuizCreator  ErrCode = "NOT_QUIZ_CREATOR"
	ErrNotAttemptOwner ErrCode = "NOT_ATTEMPT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrQuizNotAvailable  ErrCode = "QUIZ_NOT_AVAILABLE"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrAttemptCompleted  ErrCode = "ATTEMPT_COMPLETED"
	ErrUnknownQuestion   ErrCode = "UNKNOWN_QUESTION"
	ErrDeadlinePassed    ErrCode = "DEADLINE_PASSED"
	ErrDuplicateOrderNum ErrCode = "DUPLICATE_ORDER_NUM"

	// ─── Import / Export ───────────────────────────────────────────────
	ErrInvalidFormat     ErrCode = "INVALID_FORMAT"
	ErrUnsupportedFormat ErrCode = "UNSUPPORTED_FORMAT"
	ErrFileRequired      ErrCode = "FILE_REQUIRED"
	ErrFileTooLarge      ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrQuizMasterOnly:
		return "This resource is restricted to quiz masters."
	case ErrNotQuizCreator:
		return "You are not the creator of this quiz."
	case ErrNotAttemptOwner:
		return "This attempt belongs to another user."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrQuizNotAvailable:
		return "This quiz is not available."
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrAttemptCompleted:
		return "This attempt has already been submitted."
	case ErrUnknownQuestion:
		return "The submission references a question that is not part of this quiz."
	case ErrDeadlinePassed:
		return "The time limit for this attempt has passed."
	case ErrDuplicateOrderNum:
		return "Another question already uses this order number."

	// ─── Import / Export ───────────────────────────────────────────────
	case ErrInvalidFormat:
		return "The uploaded document is not in a valid quiz format."
	case ErrUnsupportedFormat:
		return "Unsupported format. Use json, markdown or yaml."
	case ErrFileRequired:
		return "A file upload or request body is required."
	case ErrFileTooLarge:
		return "The file exceeds the size limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
