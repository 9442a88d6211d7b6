package models

const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// Actor is the authenticated caller as resolved by the external
// authentication layer.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
