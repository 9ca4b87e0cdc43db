package auth

// Identity is the caller of a request, resolved once by the middleware:
// either Authenticated or Anonymous.
type Identity interface {
	identity()
}

// Authenticated is a caller with a valid session or bearer token.
type Authenticated struct {
	UserID string
}

// Anonymous is a caller without valid credentials.
type Anonymous struct{}

func (Authenticated) identity() {}
func (Anonymous) identity()     {}
