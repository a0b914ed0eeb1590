package store

import (
	"strings"

	"shelfmark/pkg/domain"
)

// BookFilter narrows book queries. Zero values mean "no restriction";
// Category additionally treats the "All" sentinel as no restriction.
type BookFilter struct {
	OwnerID  string
	Search   string
	Category string
}

// CategoryRestriction returns the effective category filter. The second
// return is false when no restriction applies ("" and "All" are
// equivalent sentinels).
func (f BookFilter) CategoryRestriction() (string, bool) {
	category := strings.TrimSpace(f.Category)
	if category == "" || category == domain.CategoryAll {
		return "", false
	}
	return category, true
}

// SearchTerm returns the lowercased trimmed search string, empty when the
// filter carries no search.
func (f BookFilter) SearchTerm() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// Matches reports whether a book satisfies the filter. It is the reference
// predicate used by in-memory queries; SQL-backed stores must agree with
// it.
func (f BookFilter) Matches(b domain.Book) bool {
	if f.OwnerID != "" && b.OwnerID != f.OwnerID {
		return false
	}
	if category, ok := f.CategoryRestriction(); ok && b.Category != category {
		return false
	}
	if term := f.SearchTerm(); term != "" {
		if !strings.Contains(strings.ToLower(b.Title), term) &&
			!strings.Contains(strings.ToLower(b.Author), term) &&
			!strings.Contains(strings.ToLower(b.Category), term) {
			return false
		}
	}
	return true
}

// Sortable book fields. Anything else must be rejected at the request
// boundary before a BookSort is built.
const (
	SortByTitle     = "title"
	SortByAuthor    = "author"
	SortByCategory  = "category"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
)

// ValidSortField reports whether field is in the sortable allow-list.
func ValidSortField(field string) bool {
	switch field {
	case SortByTitle, SortByAuthor, SortByCategory, SortByCreatedAt, SortByUpdatedAt:
		return true
	default:
		return false
	}
}

// BookSort is a single-key ordering directive. Stores break ties on id so
// pagination stays deterministic.
type BookSort struct {
	Field string
	Desc  bool
}

// DefaultBookSort orders newest first.
func DefaultBookSort() BookSort {
	return BookSort{Field: SortByCreatedAt, Desc: true}
}

// Store defines persistence operations for users, books, and messages.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	UserCount() (int, error)
	DeleteUser(id string) error

	// books
	SaveBook(domain.Book) error
	GetBook(id string) (domain.Book, bool, error)
	DeleteBook(id string) error
	// DeleteBooksByOwner removes all books of one owner and returns the
	// deleted records so callers can release their cover images.
	DeleteBooksByOwner(ownerID string) ([]domain.Book, error)
	// FindBooks returns one page of matching books.
	FindBooks(filter BookFilter, sort BookSort, offset, limit int) ([]domain.Book, error)
	// CountBooks counts matching books without fetching them.
	CountBooks(filter BookFilter) (int, error)
	// ListBooks returns the full matching set, unpaginated, for
	// statistics aggregation.
	ListBooks(filter BookFilter) ([]domain.Book, error)

	// messages
	SaveMessage(domain.Message) error
	GetMessage(id string) (domain.Message, bool, error)
	ListMessages() ([]domain.Message, error)
	DeleteMessage(id string) error
}
