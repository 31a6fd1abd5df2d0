package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"
	ErrInvalidPhase       ErrCode = "INVALID_PHASE"
	ErrSessionTerminated  ErrCode = "SESSION_TERMINATED"
	ErrQuestionsPending   ErrCode = "QUESTIONS_PENDING"
	ErrScreenShareNeeded  ErrCode = "SCREEN_SHARE_REQUIRED"
	ErrNavigationDenied   ErrCode = "NAVIGATION_DENIED"
	ErrSnapshotRequired   ErrCode = "SNAPSHOT_REQUIRED"
	ErrNoCodeProvided     ErrCode = "NO_CODE_PROVIDED"
	ErrGenerationFailed   ErrCode = "GENERATION_FAILED"
	ErrMalformedAIPayload ErrCode = "MALFORMED_AI_RESPONSE"

	// ─── Persistence ───────────────────────────────────────────────────
	ErrResultNotSaved ErrCode = "RESULT_NOT_SAVED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your login session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	case ErrForbidden:
		return "You do not have access to this resource."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	case ErrSessionNotFound:
		return "No such test session. It may have already ended."
	case ErrInvalidPhase:
		return "This action is not allowed in the session's current phase."
	case ErrSessionTerminated:
		return "This test session has already ended."
	case ErrQuestionsPending:
		return "Your question set is still being generated. Please wait."
	case ErrScreenShareNeeded:
		return "Screen sharing is required to start this interview round."
	case ErrNavigationDenied:
		return "Free navigation is only available in the online assessment round."
	case ErrSnapshotRequired:
		return "A baseline camera snapshot is required before continuing."
	case ErrNoCodeProvided:
		return "No code provided."
	case ErrGenerationFailed:
		return "Could not generate questions. Please try again."
	case ErrMalformedAIPayload:
		return "The AI service returned an unreadable response. Please retry."

	case ErrResultNotSaved:
		return "Your result could not be saved, but it is shown below. We will keep retrying."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
