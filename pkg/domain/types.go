package domain

import (
	"strings"
	"time"
)

type ReadingStatus string

const (
	StatusRead    ReadingStatus = "Read"
	StatusReading ReadingStatus = "Reading"
	StatusToRead  ReadingStatus = "To Read"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// DefaultAuthor is stored when a book is created without an author.
const DefaultAuthor = "Unknown Author"

// DefaultCategory is the fallback member of the category enumeration.
const DefaultCategory = "Other"

// CategoryAll is the sentinel meaning "no category filter".
const CategoryAll = "All"

// Categories is the fixed enumeration of book categories. It is the single
// source of truth for request validation, filtering, and statistics.
var Categories = []string{
	"Romance",
	"Mystery",
	"Thriller",
	"Horror",
	"Fantasy",
	"Fiction",
	"Non-Fiction",
	"Biography",
	"Self-Help",
	"Science",
	"Technology",
	"Programming",
	"History",
	"Politics",
	"Philosophy",
	"Psychology",
	"Communication",
	"Business",
	"Health & Fitness",
	"Education",
	"Religion & Spirituality",
	"Travel",
	"Cooking",
	"Art",
	"Medicine",
	DefaultCategory,
}

// ValidCategory reports whether name is a member of the enumeration.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// ParseReadingStatus maps a string onto the status enumeration.
func ParseReadingStatus(s string) (ReadingStatus, bool) {
	switch ReadingStatus(strings.TrimSpace(s)) {
	case StatusRead:
		return StatusRead, true
	case StatusReading:
		return StatusReading, true
	case StatusToRead:
		return StatusToRead, true
	default:
		return "", false
	}
}

// Book is one catalogued book owned by exactly one user. Rating 0 means
// "no rating". CoverImageID is the object-storage key backing CoverImage
// and is never serialized.
type Book struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"ownerId"`
	Title        string        `json:"title"`
	Author       string        `json:"author"`
	Category     string        `json:"category"`
	Status       ReadingStatus `json:"status"`
	CoverImage   string        `json:"coverImage,omitempty"`
	CoverImageID string        `json:"-"`
	Rating       int           `json:"rating"`
	Review       string        `json:"review,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// BookOwner is the owner projection attached to admin book listings.
type BookOwner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OwnedBook is a book with its owner expanded.
type OwnedBook struct {
	Book
	Owner BookOwner `json:"owner"`
}

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	IsBanned     bool      `json:"isBanned"`
	ProfilePic   string    `json:"profilePic,omitempty"`
	ProfilePicID string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DeriveFullName recomputes FullName from the name parts. Callers must
// invoke it whenever FirstName or LastName change.
func (u *User) DeriveFullName() {
	u.FullName = strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Message is a contact-form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
