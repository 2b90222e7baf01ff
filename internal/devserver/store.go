// Package devserver is the in-memory development backend: a faithful,
// hermetic implementation of the user-management HTTP contract the console
// speaks, for local development and integration tests.
package devserver

import (
	"crypto/rand"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/usermgmt/account-console/internal/core/domain"
)

// account is a stored user. Password hashes never leave the store.
type account struct {
	id         string
	username   string
	hash       []byte
	role       string
	forceReset bool
	lastLogin  *time.Time
	createdAt  time.Time
}

type auditRow struct {
	username string
	ts       time.Time
	ip       string
}

// AuthResult is what Authenticate reports back to the login handler.
type AuthResult struct {
	Username           string
	Role               string
	ForcePasswordReset bool
}

// Store holds accounts and the login audit trail. All access is
// mutex-guarded; handlers run on concurrent connections.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*account // keyed by id
	audit    []auditRow
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{accounts: make(map[string]*account)}
}

// Seed creates an account with the given role, typically the initial admin.
func (s *Store) Seed(username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(username) != nil {
		return domain.ErrUserExists
	}
	id := uuid.NewString()
	s.accounts[id] = &account{
		id:        id,
		username:  username,
		hash:      hash,
		role:      role,
		createdAt: time.Now().UTC(),
	}
	return nil
}

// Register creates a USER account.
func (s *Store) Register(username, password string) error {
	return s.Seed(username, password, domain.RoleUser)
}

// Authenticate verifies credentials, stamps the last login, and records an
// audit row. A missing user and a wrong password are indistinguishable to
// the caller.
func (s *Store) Authenticate(username, password, ip string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.findLocked(username)
	if acc == nil {
		return AuthResult{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return AuthResult{}, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	acc.lastLogin = &now
	s.audit = append(s.audit, auditRow{username: acc.username, ts: now, ip: ip})

	return AuthResult{Username: acc.username, Role: acc.role, ForcePasswordReset: acc.forceReset}, nil
}

// ChangePassword verifies the old password before storing the new one.
// Success clears the forced-reset flag.
func (s *Store) ChangePassword(username, oldPassword, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.findLocked(username)
	if acc == nil {
		return domain.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(oldPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	acc.hash = hash
	acc.forceReset = false
	return nil
}

// LastLogin returns the stamp of the most recent login, nil when the
// account has never logged in.
func (s *Store) LastLogin(username string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.findLocked(username)
	if acc == nil {
		return nil, domain.ErrUserNotFound
	}
	if acc.lastLogin == nil {
		return nil, nil
	}
	ts := *acc.lastLogin
	return &ts, nil
}

// List returns every account as a UserRecord, oldest first.
func (s *Store) List() []domain.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	accs := make([]*account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].createdAt.Before(accs[j].createdAt) })

	records := make([]domain.UserRecord, 0, len(accs))
	for _, acc := range accs {
		records = append(records, domain.UserRecord{ID: acc.id, Username: acc.username, Role: acc.role})
	}
	return records
}

// Delete removes the account with the given id. The audit trail survives
// deletion.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.accounts, id)
	return nil
}

// ResetPassword replaces the account's password with a readable temporary
// one and raises the forced-reset flag. The temporary password is returned
// exactly once and never stored in the clear.
func (s *Store) ResetPassword(id string) (string, error) {
	temp, err := readablePassword(12)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	acc.hash = hash
	acc.forceReset = true
	return temp, nil
}

// Audit returns the login trail for one username in chronological order.
func (s *Store) Audit(username string) []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.AuditEntry, 0)
	for _, row := range s.audit {
		if row.username == username {
			entries = append(entries, domain.AuditEntry{Timestamp: row.ts, IP: row.ip})
		}
	}
	return entries
}

func (s *Store) findLocked(username string) *account {
	for _, acc := range s.accounts {
		if acc.username == username {
			return acc
		}
	}
	return nil
}

// Charset skips lookalike characters (0/O, 1/l/I) so temporary passwords
// can be read over the phone.
const passwordChars = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

func readablePassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordChars[n.Int64()]
	}
	return string(out), nil
}
