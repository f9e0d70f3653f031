package model

// Principal identifies the authenticated operator behind a request.
type Principal struct {
	UserID string
	Role   string
}
