package model

import "time"

// ContactMessage is a submission from the public contact-us form.
type ContactMessage struct {
	ID          uint64    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
