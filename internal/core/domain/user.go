package domain

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// SignalUsersChanged is the named server-push signal telling admin clients
// that the user collection is stale and must be re-fetched.
const SignalUsersChanged = "users-changed"

// UserRecord is an immutable snapshot of an account as reported by the
// backend. The console never mutates a record locally; admin views replace
// the whole collection on every refresh.
type UserRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuditEntry is a single login-audit row, scoped to the last-queried
// username. Query results replace the previously displayed sequence
// wholesale, never merge into it.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
}
