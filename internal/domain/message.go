package domain

import (
	"strings"
	"time"
)

type ContactMessage struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage is a visitor submission before the data service stores it.
type NewMessage struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Message string `form:"message" json:"message"`
}

func (m NewMessage) Trimmed() NewMessage {
	return NewMessage{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Message: strings.TrimSpace(m.Message),
	}
}

func (m NewMessage) Validate() error {
	t := m.Trimmed()
	switch {
	case t.Name == "":
		return &ValidationError{Field: "name", Message: "name is required"}
	case t.Email == "":
		return &ValidationError{Field: "email", Message: "email is required"}
	case t.Message == "":
		return &ValidationError{Field: "message", Message: "message is required"}
	case strings.ContainsAny(t.Name, "\r\n"):
		return &ValidationError{Field: "name", Message: "name must be a single line"}
	case strings.ContainsAny(t.Email, "\r\n"):
		return &ValidationError{Field: "email", Message: "email must be a single line"}
	}
	return nil
}
