package models

import (
	"strings"

	"gorm.io/gorm"
)

// AccessLevel determines whether a share grants mutation rights.
type AccessLevel string

const (
	AccessEdit AccessLevel = "edit"
	AccessView AccessLevel = "view"
)

// User represents a registered user in the system.
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
}

// DisplayName is the name shown in presence rosters: the username when set,
// otherwise the local part of the email address.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	name, _, _ := strings.Cut(u.Email, "@")
	return name
}

// Document is the durable rich-text document record.
type Document struct {
	gorm.Model
	UserID         uint   `gorm:"not null;index" json:"userId"` // owner
	LastEditedByID *uint  `json:"lastEditedById"`
	Title          string `gorm:"not null" json:"title"`
	Content        string `gorm:"type:text;not null" json:"content"`
	IsPublic       bool   `gorm:"not null;default:false" json:"isPublic"`
}

// DocumentShare grants a user (by id once registered, always by email)
// view or edit access to someone else's document.
type DocumentShare struct {
	gorm.Model
	DocumentID  uint        `gorm:"not null;index" json:"documentId"`
	UserID      *uint       `gorm:"index" json:"userId"` // nil until the invitee registers
	Email       string      `gorm:"not null" json:"email"`
	AccessLevel AccessLevel `gorm:"not null;default:edit" json:"accessLevel"`
}

// Summary is an AI-generated summary saved against a document.
type Summary struct {
	gorm.Model
	DocumentID uint   `gorm:"not null;index" json:"documentId"`
	Content    string `gorm:"type:text;not null" json:"content"`
}
