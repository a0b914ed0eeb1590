package store

import (
	"sort"
	"sync"

	"shelfmark/pkg/domain"
)

// MemoryStore keeps all records in-process. It backs handler and service
// tests and mirrors the query semantics of the SQL store.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	email    map[string]string // email -> user ID
	books    map[string]domain.Book
	messages map[string]domain.Message
	order    []string // book insertion order
	msgOrder []string
	usrOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		books:    make(map[string]domain.Book),
		messages: make(map[string]domain.Message),
	}
}

// SaveUser stores or replaces a user record.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, exists := m.users[u.ID]; exists {
		if prev.Email != u.Email {
			delete(m.email, prev.Email)
		}
	} else {
		m.usrOrder = append(m.usrOrder, u.ID)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns users in insertion order.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.usrOrder))
	for _, id := range m.usrOrder {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

// UserCount returns number of users.
func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// DeleteUser removes a user record.
func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		delete(m.email, u.Email)
		delete(m.users, id)
	}
	return nil
}

// SaveBook stores or replaces a book record and tracks insertion order.
func (m *MemoryStore) SaveBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.books[b.ID]; !exists {
		m.order = append(m.order, b.ID)
	}
	m.books[b.ID] = b
	return nil
}

// GetBook retrieves a book.
func (m *MemoryStore) GetBook(id string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

// DeleteBook removes a book record.
func (m *MemoryStore) DeleteBook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	return nil
}

// DeleteBooksByOwner removes all of one owner's books and returns them.
func (m *MemoryStore) DeleteBooksByOwner(ownerID string) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []domain.Book
	for _, id := range m.order {
		if b, ok := m.books[id]; ok && b.OwnerID == ownerID {
			deleted = append(deleted, b)
			delete(m.books, id)
		}
	}
	return deleted, nil
}

// FindBooks returns one page of books matching the filter in sort order.
func (m *MemoryStore) FindBooks(filter BookFilter, sortBy BookSort, offset, limit int) ([]domain.Book, error) {
	matched, err := m.ListBooks(filter)
	if err != nil {
		return nil, err
	}
	sortBooks(matched, sortBy)
	if offset >= len(matched) {
		return []domain.Book{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountBooks counts books matching the filter.
func (m *MemoryStore) CountBooks(filter BookFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, b := range m.books {
		if filter.Matches(b) {
			count++
		}
	}
	return count, nil
}

// ListBooks returns the full matching set sorted newest first.
func (m *MemoryStore) ListBooks(filter BookFilter) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0, len(m.order))
	for _, id := range m.order {
		if b, ok := m.books[id]; ok && filter.Matches(b) {
			res = append(res, b)
		}
	}
	sortBooks(res, DefaultBookSort())
	return res, nil
}

func sortBooks(books []domain.Book, by BookSort) {
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i], books[j]
		var less, equal bool
		switch by.Field {
		case SortByTitle:
			less, equal = a.Title < b.Title, a.Title == b.Title
		case SortByAuthor:
			less, equal = a.Author < b.Author, a.Author == b.Author
		case SortByCategory:
			less, equal = a.Category < b.Category, a.Category == b.Category
		case SortByUpdatedAt:
			less, equal = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
		default:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			return a.ID < b.ID
		}
		if by.Desc {
			return !less
		}
		return less
	})
}

// SaveMessage stores or replaces a message record.
func (m *MemoryStore) SaveMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.messages[msg.ID]; !exists {
		m.msgOrder = append(m.msgOrder, msg.ID)
	}
	m.messages[msg.ID] = msg
	return nil
}

// GetMessage retrieves one message.
func (m *MemoryStore) GetMessage(id string) (domain.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	return msg, ok, nil
}

// ListMessages returns all messages newest first.
func (m *MemoryStore) ListMessages() ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Message, 0, len(m.msgOrder))
	for _, id := range m.msgOrder {
		if msg, ok := m.messages[id]; ok {
			res = append(res, msg)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// DeleteMessage removes a message.
func (m *MemoryStore) DeleteMessage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, id)
	return nil
}
