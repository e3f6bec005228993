package domain

type CtxKey string

const (
	// KeySubjectID holds the verified auth provider subject id. It is absent
	// for unauthenticated requests.
	KeySubjectID CtxKey = "SubjectID"
	KeyRequestID CtxKey = "RequestID"
)
