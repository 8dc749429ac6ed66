package apperr

var (
	ErrIdentityConflict   = New(CodeAlreadyExists, KindIdentityConflict, "a user with this phone number already exists")
	ErrDuplicateContact   = New(CodeAlreadyExists, KindDuplicateContact, "contact already exists in your contact list")
	ErrDuplicateReport    = New(CodeAlreadyExists, KindDuplicateReport, "spam report already exists")
	ErrSelfReport         = New(CodeFailedPrecondition, KindSelfReport, "can't report self as spam")
	ErrNotFound           = New(CodeNotFound, KindNotFound, "person not found")
	ErrValidation         = New(CodeInvalidArgument, KindValidation, "invalid request")
	ErrInvalidCredentials = New(CodeUnauthenticated, KindInvalidCredentials, "invalid credentials")
)
