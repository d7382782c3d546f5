// Package model defines domain entities for the application.
package model

// User is a person the service keeps records for.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"nombre"`
	Surname string `json:"apellidos"`
	Phone   string `json:"telefono"`
	Address string `json:"direccion"`
}

// NewUser holds the client-supplied fields of a user.
// The identifier is always assigned by the store.
type NewUser struct {
	Name    string `json:"nombre"`
	Surname string `json:"apellidos"`
	Phone   string `json:"telefono"`
	Address string `json:"direccion"`
}

// User materializes the input with the given identifier.
func (n NewUser) User(id int64) *User {
	return &User{
		ID:      id,
		Name:    n.Name,
		Surname: n.Surname,
		Phone:   n.Phone,
		Address: n.Address,
	}
}
