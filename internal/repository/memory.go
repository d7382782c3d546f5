package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cptk8s/registro/internal/model"
)

// MemoryRepository keeps all records in process memory behind a single
// readers-writer lock. Readers share the lock; every mutation holds it
// exclusively and never blocks or performs I/O while doing so.
// State is lost on restart.
type MemoryRepository struct {
	mu             sync.RWMutex
	users          []model.User
	communications []model.Communication
	credentials    []model.Credential

	nextUserID          int64
	nextCommunicationID int64
	nextCredentialID    int64

	now func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		nextUserID:          1,
		nextCommunicationID: 1,
		nextCredentialID:    1,
		now:                 time.Now,
	}
}

// Ping always succeeds.
func (m *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryRepository) Close() error {
	return nil
}

// CreateUser stores a user with the next identifier.
func (m *MemoryRepository) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := in.User(m.nextUserID)
	m.nextUserID++
	m.users = append(m.users, *user)

	return user, nil
}

// ListUsers returns copies of all users ordered by ID.
func (m *MemoryRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*model.User, 0, len(m.users))
	for i := range m.users {
		u := m.users[i]
		users = append(users, &u)
	}
	return users, nil
}

// UserExists reports whether a user with the given ID exists.
func (m *MemoryRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.userIndex(id) >= 0, nil
}

// DeleteUser removes a user together with their communications and credentials.
func (m *MemoryRepository) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.userIndex(id)
	if idx < 0 {
		return ErrUserNotFound
	}

	m.users = slices.Delete(m.users, idx, idx+1)
	m.communications = slices.DeleteFunc(m.communications, func(c model.Communication) bool {
		return c.UserID == id
	})
	m.credentials = slices.DeleteFunc(m.credentials, func(c model.Credential) bool {
		return c.UserID == id
	})

	return nil
}

// CreateCommunication stores a communication dated now.
// Returns ErrUserNotFound if the referenced user does not exist.
func (m *MemoryRepository) CreateCommunication(ctx context.Context, in model.NewCommunication) (*model.Communication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userIndex(in.UserID) < 0 {
		return nil, ErrUserNotFound
	}

	comm := model.Communication{
		ID:      m.nextCommunicationID,
		Date:    m.now().UTC(),
		Type:    in.Type,
		UserID:  in.UserID,
		Summary: in.Summary,
	}
	m.nextCommunicationID++
	m.communications = append(m.communications, comm)

	return &comm, nil
}

// ListCommunications returns copies of all communications ordered by ID.
func (m *MemoryRepository) ListCommunications(ctx context.Context) ([]*model.Communication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comms := make([]*model.Communication, 0, len(m.communications))
	for i := range m.communications {
		c := m.communications[i]
		comms = append(comms, &c)
	}
	return comms, nil
}

// DeleteCommunication removes a communication by ID.
func (m *MemoryRepository) DeleteCommunication(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.communications, func(c model.Communication) bool {
		return c.ID == id
	})
	if idx < 0 {
		return ErrCommunicationNotFound
	}

	m.communications = slices.Delete(m.communications, idx, idx+1)
	return nil
}

// GetCredentialByUsername looks up a credential by exact username match.
func (m *MemoryRepository) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.credentials {
		if m.credentials[i].Username == username {
			c := m.credentials[i]
			return &c, nil
		}
	}
	return nil, ErrCredentialNotFound
}

// CreateCredential stores a credential for an existing user.
func (m *MemoryRepository) CreateCredential(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userIndex(cred.UserID) < 0 {
		return nil, ErrUserNotFound
	}
	for i := range m.credentials {
		if m.credentials[i].Username == cred.Username {
			return nil, ErrCredentialExists
		}
	}

	created := *cred
	created.ID = m.nextCredentialID
	m.nextCredentialID++
	m.credentials = append(m.credentials, created)

	return &created, nil
}

// userIndex must be called with the lock held.
func (m *MemoryRepository) userIndex(id int64) int {
	return slices.IndexFunc(m.users, func(u model.User) bool {
		return u.ID == id
	})
}
