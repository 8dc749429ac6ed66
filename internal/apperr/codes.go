package apperr

// Code is the coarse category of an application error.
type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeInternal           Code = "INTERNAL"
)

// Kind names the specific domain failure.
type Kind string

const (
	KindIdentityConflict   Kind = "IdentityConflict"
	KindDuplicateContact   Kind = "DuplicateContact"
	KindDuplicateReport    Kind = "DuplicateReport"
	KindSelfReport         Kind = "SelfReport"
	KindNotFound           Kind = "NotFound"
	KindValidation         Kind = "ValidationError"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindInternal           Kind = "Internal"
)
