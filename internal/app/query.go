package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"shelfmark/pkg/domain"
	"shelfmark/pkg/store"
)

// OwnBooksResult is one page of the caller's library. Stats always cover
// the caller's whole library, not just the filtered page.
type OwnBooksResult struct {
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
	Stats BookStats     `json:"stats"`
	Books []domain.Book `json:"books"`
}

// GetOwnBooks returns one page of ownerID's books, optionally narrowed
// to one category. Total counts the filtered set; Stats ignore the
// category filter on purpose so dashboard numbers stay stable while the
// user browses categories.
func (a *App) GetOwnBooks(ctx context.Context, ownerID string, page, limit int, category string) (OwnBooksResult, error) {
	pageFilter := store.BookFilter{OwnerID: ownerID, Category: category}
	books, err := a.store.FindBooks(pageFilter, store.DefaultBookSort(), (page-1)*limit, limit)
	if err != nil {
		return OwnBooksResult{}, fmt.Errorf("find books: %w", err)
	}
	total, err := a.store.CountBooks(pageFilter)
	if err != nil {
		return OwnBooksResult{}, fmt.Errorf("count books: %w", err)
	}
	all, err := a.store.ListBooks(store.BookFilter{OwnerID: ownerID})
	if err != nil {
		return OwnBooksResult{}, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return OwnBooksResult{
		Page:  page,
		Limit: limit,
		Total: total,
		Stats: CalcBookStats(all),
		Books: books,
	}, nil
}

// AllBooksQuery parameterises the admin catalogue listing. Zero-value
// OwnerID, Search, and Category mean no restriction.
type AllBooksQuery struct {
	Page     int
	Limit    int
	OwnerID  string
	Search   string
	Category string
	Sort     store.BookSort
}

// AllBooksResult is one page of the admin catalogue. Stats cover the
// filtered set; TotalBooks counts the entire catalogue regardless of
// any filter.
type AllBooksResult struct {
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	Total      int                `json:"total"`
	TotalPages int                `json:"totalPages"`
	SortBy     string             `json:"sortBy"`
	Order      string             `json:"order"`
	Stats      BookStats          `json:"stats"`
	Books      []domain.OwnedBook `json:"books"`
	TotalBooks int                `json:"totalBooks"`
}

// GetAllBooks lists books across all users for admins. Filtering by an
// unknown owner is an error rather than an empty result. The page, the
// filtered statistics set, and the global count are fetched
// concurrently.
func (a *App) GetAllBooks(ctx context.Context, q AllBooksQuery) (AllBooksResult, error) {
	if q.OwnerID != "" {
		if _, err := a.GetUser(ctx, q.OwnerID); err != nil {
			return AllBooksResult{}, err
		}
	}
	filter := store.BookFilter{OwnerID: q.OwnerID, Search: q.Search, Category: q.Category}

	var (
		page       []domain.Book
		filtered   []domain.Book
		totalBooks int
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = a.store.FindBooks(filter, q.Sort, (q.Page-1)*q.Limit, q.Limit)
		if err != nil {
			return fmt.Errorf("find books: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		filtered, err = a.store.ListBooks(filter)
		if err != nil {
			return fmt.Errorf("list books: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		totalBooks, err = a.store.CountBooks(store.BookFilter{})
		if err != nil {
			return fmt.Errorf("count catalogue: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return AllBooksResult{}, err
	}

	books, err := a.expandOwners(page)
	if err != nil {
		return AllBooksResult{}, err
	}
	total := len(filtered)
	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	order := "asc"
	if q.Sort.Desc {
		order = "desc"
	}
	return AllBooksResult{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: totalPages,
		SortBy:     q.Sort.Field,
		Order:      order,
		Stats:      CalcBookStats(filtered),
		Books:      books,
		TotalBooks: totalBooks,
	}, nil
}

// expandOwners attaches owner name and email to each book. A book whose
// owner record is gone keeps an empty owner rather than failing the
// listing.
func (a *App) expandOwners(books []domain.Book) ([]domain.OwnedBook, error) {
	owners := make(map[string]domain.BookOwner)
	out := make([]domain.OwnedBook, 0, len(books))
	for _, b := range books {
		owner, seen := owners[b.OwnerID]
		if !seen {
			user, ok, err := a.store.GetUserByID(b.OwnerID)
			if err != nil {
				return nil, fmt.Errorf("lookup owner: %w", err)
			}
			if ok {
				owner = domain.BookOwner{Name: user.FullName, Email: user.Email}
			}
			owners[b.OwnerID] = owner
		}
		out = append(out, domain.OwnedBook{Book: b, Owner: owner})
	}
	return out, nil
}
