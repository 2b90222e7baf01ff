package session

import "github.com/usermgmt/account-console/internal/core/domain"

// View enumerates the top-level screens. The set is closed and routing is a
// total function over it, so invalid combinations — an admin gated behind a
// forced reset, say — are not representable as outputs.
type View int

const (
	ViewAnonymous View = iota
	ViewAdmin
	ViewForcedReset
	ViewUser
)

func (v View) String() string {
	switch v {
	case ViewAnonymous:
		return "anonymous"
	case ViewAdmin:
		return "admin"
	case ViewForcedReset:
		return "forced-reset"
	case ViewUser:
		return "user"
	default:
		return "unknown"
	}
}

// Route maps session state to the active view. It is pure and is evaluated
// on every state change:
//
//	no credential            → ViewAnonymous
//	role ADMIN               → ViewAdmin (the reset flag is irrelevant)
//	role USER, forced reset  → ViewForcedReset
//	role USER                → ViewUser
func Route(cred *domain.Credential, forcePasswordReset bool) View {
	switch {
	case cred == nil:
		return ViewAnonymous
	case cred.IsAdmin():
		return ViewAdmin
	case forcePasswordReset:
		return ViewForcedReset
	default:
		return ViewUser
	}
}
