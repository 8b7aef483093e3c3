package model

import "time"

// UserStatus is the presence state of a user.
type UserStatus string

const (
	UserStatusOnline  UserStatus = "ONLINE"
	UserStatusOffline UserStatus = "OFFLINE"
)

// User represents a registered user account.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;size:255;not null"`
	Name         string     `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Password     string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Status       UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'OFFLINE';index"`
	Token        string     `json:"token" gorm:"size:512;index"`
	BirthDay     string     `json:"birthDay,omitempty" gorm:"size:64"`
	CreationDate time.Time  `json:"creationDate"`
	UpdatedAt    time.Time  `json:"-"`
}

// IsOnline reports whether the user is currently logged in.
func (u *User) IsOnline() bool {
	return u.Status == UserStatusOnline
}
