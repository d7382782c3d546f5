package model

import "time"

// Communication is a contact event (call, email, visit...) logged against a user.
type Communication struct {
	ID      int64     `json:"id"`
	Date    time.Time `json:"fecha"`
	Type    string    `json:"tipo"`
	UserID  int64     `json:"usuario_id"`
	Summary string    `json:"resumen"`
}

// NewCommunication holds the client-supplied fields of a communication.
// ID and Date are assigned by the store.
type NewCommunication struct {
	Type    string `json:"tipo"`
	UserID  int64  `json:"usuario_id"`
	Summary string `json:"resumen"`
}
