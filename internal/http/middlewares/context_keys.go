package middlewares

// Keys stashed on the gin context.
const (
	CtxRequestID = "request_id"
	CtxSubject   = "auth.subject"
	CtxRole      = "auth.role"
)
