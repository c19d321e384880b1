package models

import "time"

type Note struct {
	ID               string
	OwnerID          string
	EncryptedTitle   []byte
	EncryptedContent []byte
	IV               []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
