package service

import (
	"context"

	"github.com/cptk8s/registro/internal/model"
)

// Store is the persistence contract shared by the SQL and in-memory repositories.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, in model.NewUser) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateCommunication(ctx context.Context, in model.NewCommunication) (*model.Communication, error)
	ListCommunications(ctx context.Context) ([]*model.Communication, error)
	DeleteCommunication(ctx context.Context, id int64) error

	GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error)
	CreateCredential(ctx context.Context, cred *model.Credential) (*model.Credential, error)
}
