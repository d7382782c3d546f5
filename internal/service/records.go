package service

import (
	"context"
	"errors"

	"github.com/cptk8s/registro/internal/audit"
	"github.com/cptk8s/registro/internal/auth"
	"github.com/cptk8s/registro/internal/metrics"
	"github.com/cptk8s/registro/internal/model"
	"github.com/cptk8s/registro/internal/repository"
)

// Entity labels used for metrics.
const (
	entityUser          = "user"
	entityCommunication = "communication"
)

// RecordService handles users and communications.
type RecordService struct {
	store   Store
	metrics metrics.Recorder
	audit   Auditor
}

// NewRecordService creates a new RecordService.
func NewRecordService(store Store, recorder metrics.Recorder, auditor Auditor) *RecordService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if auditor == nil {
		auditor = noopAuditor{}
	}
	return &RecordService{
		store:   store,
		metrics: recorder,
		audit:   auditor,
	}
}

// ListUsers returns all users.
func (s *RecordService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, newError(ErrInternal, "list users", err)
	}
	return users, nil
}

// CreateUser stores a new user and returns it with its assigned ID.
func (s *RecordService) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	user, err := s.store.CreateUser(ctx, in)
	if err != nil {
		return nil, newError(ErrInternal, "create user", err)
	}
	s.metrics.IncRecordCreated(entityUser)
	s.audit.Record(ctx, audit.ActionUserCreated, auth.SubjectFromContext(ctx), user.ID)
	return user, nil
}

// DeleteUser removes a user and, through cascading, their records.
func (s *RecordService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return newError(ErrNotFound, "delete user", err)
		}
		return newError(ErrInternal, "delete user", err)
	}
	s.metrics.IncRecordDeleted(entityUser)
	s.audit.Record(ctx, audit.ActionUserDeleted, auth.SubjectFromContext(ctx), id)
	return nil
}

// ListCommunications returns all communications.
func (s *RecordService) ListCommunications(ctx context.Context) ([]*model.Communication, error) {
	comms, err := s.store.ListCommunications(ctx)
	if err != nil {
		return nil, newError(ErrInternal, "list communications", err)
	}
	return comms, nil
}

// CreateCommunication stores a communication for an existing user.
// The user is checked before any insert is attempted; a missing user is a
// validation error.
func (s *RecordService) CreateCommunication(ctx context.Context, in model.NewCommunication) (*model.Communication, error) {
	exists, err := s.store.UserExists(ctx, in.UserID)
	if err != nil {
		return nil, newError(ErrInternal, "create communication", err)
	}
	if !exists {
		return nil, newError(ErrValidation, "create communication", repository.ErrUserNotFound)
	}

	comm, err := s.store.CreateCommunication(ctx, in)
	if err != nil {
		// The user was removed between the check and the insert.
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, newError(ErrValidation, "create communication", err)
		}
		return nil, newError(ErrInternal, "create communication", err)
	}

	s.metrics.IncRecordCreated(entityCommunication)
	s.audit.Record(ctx, audit.ActionCommunicationCreated, auth.SubjectFromContext(ctx), comm.ID)
	return comm, nil
}

// DeleteCommunication removes a communication.
func (s *RecordService) DeleteCommunication(ctx context.Context, id int64) error {
	if err := s.store.DeleteCommunication(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCommunicationNotFound) {
			return newError(ErrNotFound, "delete communication", err)
		}
		return newError(ErrInternal, "delete communication", err)
	}
	s.metrics.IncRecordDeleted(entityCommunication)
	s.audit.Record(ctx, audit.ActionCommunicationDeleted, auth.SubjectFromContext(ctx), id)
	return nil
}
