package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	FirstName    string    `gorm:"not null"`
	LastName     string    `gorm:"not null"`
	FullName     string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	IsBanned     bool      `gorm:"not null;default:false"`
	ProfilePic   string
	ProfilePicID string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type BookModel struct {
	ID           string    `gorm:"primaryKey"`
	OwnerID      string    `gorm:"not null;index"`
	Title        string    `gorm:"not null"`
	Author       string    `gorm:"not null"`
	Category     string    `gorm:"not null;index"`
	Status       string    `gorm:"not null"`
	CoverImage   string
	CoverImageID string
	Rating       int
	Review       string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type MessageModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Subject   string    `gorm:"not null"`
	Body      string    `gorm:"type:text;not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;index"`
}
