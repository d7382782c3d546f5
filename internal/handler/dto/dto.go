// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/cptk8s/registro/internal/model"

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"usuario"`
	Password string `json:"clave"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Name    string `json:"nombre"`
	Surname string `json:"apellidos"`
	Phone   string `json:"telefono"`
	Address string `json:"direccion"`
}

// ToNewUser converts the request into the model input.
func (r CreateUserRequest) ToNewUser() model.NewUser {
	return model.NewUser{
		Name:    r.Name,
		Surname: r.Surname,
		Phone:   r.Phone,
		Address: r.Address,
	}
}

// CreateCommunicationRequest represents the request body for creating a communication.
// The date is always assigned by the server.
type CreateCommunicationRequest struct {
	Type    string `json:"tipo"`
	UserID  int64  `json:"usuario_id"`
	Summary string `json:"resumen"`
}

// ToNewCommunication converts the request into the model input.
func (r CreateCommunicationRequest) ToNewCommunication() model.NewCommunication {
	return model.NewCommunication{
		Type:    r.Type,
		UserID:  r.UserID,
		Summary: r.Summary,
	}
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
