package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"shelfmark/pkg/domain"
	"shelfmark/pkg/store"
)

func seedQueryBooks(t *testing.T, st *store.MemoryStore, ownerID string) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	books := []domain.Book{
		{ID: "b1", OwnerID: ownerID, Title: "Dune", Author: "Frank Herbert", Category: "Fiction", Status: domain.StatusRead, Rating: 5},
		{ID: "b2", OwnerID: ownerID, Title: "Gone Girl", Author: "Gillian Flynn", Category: "Mystery", Status: domain.StatusRead, Rating: 3},
		{ID: "b3", OwnerID: ownerID, Title: "Clean Code", Author: "Robert Martin", Category: "Programming", Status: domain.StatusToRead},
	}
	for i, b := range books {
		b.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		b.UpdatedAt = b.CreatedAt
		if err := st.SaveBook(b); err != nil {
			t.Fatalf("SaveBook: %v", err)
		}
	}
}

func TestGetOwnBooksStatsIgnoreCategoryFilter(t *testing.T) {
	env := newTestApp(t)
	owner := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")
	seedQueryBooks(t, env.store, owner)

	res, err := env.app.GetOwnBooks(context.Background(), owner, 1, 20, "Mystery")
	if err != nil {
		t.Fatalf("GetOwnBooks: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("total = %d, want 1 (filtered count)", res.Total)
	}
	if len(res.Books) != 1 || res.Books[0].Title != "Gone Girl" {
		t.Fatalf("books = %+v", res.Books)
	}
	// Stats span the whole library, not the Mystery slice.
	if res.Stats.Total != 3 {
		t.Fatalf("stats.total = %d, want 3", res.Stats.Total)
	}
	if res.Stats.AverageRating != 4.0 {
		t.Fatalf("stats.averageRating = %v, want 4.0", res.Stats.AverageRating)
	}
}

func TestGetOwnBooksAllCategorySentinel(t *testing.T) {
	env := newTestApp(t)
	owner := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")
	seedQueryBooks(t, env.store, owner)

	for _, category := range []string{"", domain.CategoryAll} {
		res, err := env.app.GetOwnBooks(context.Background(), owner, 1, 20, category)
		if err != nil {
			t.Fatalf("GetOwnBooks(%q): %v", category, err)
		}
		if res.Total != 3 {
			t.Fatalf("category %q: total = %d, want 3", category, res.Total)
		}
	}
}

func TestGetOwnBooksNewestFirst(t *testing.T) {
	env := newTestApp(t)
	owner := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")
	seedQueryBooks(t, env.store, owner)

	res, err := env.app.GetOwnBooks(context.Background(), owner, 1, 2, "")
	if err != nil {
		t.Fatalf("GetOwnBooks: %v", err)
	}
	if len(res.Books) != 2 {
		t.Fatalf("page size = %d, want 2", len(res.Books))
	}
	if res.Books[0].ID != "b3" || res.Books[1].ID != "b2" {
		t.Fatalf("page order = %s, %s; want b3, b2", res.Books[0].ID, res.Books[1].ID)
	}
}

func TestGetAllBooksUnknownOwner(t *testing.T) {
	env := newTestApp(t)
	registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")

	_, err := env.app.GetAllBooks(context.Background(), AllBooksQuery{
		Page: 1, Limit: 20, OwnerID: "no-such-user", Sort: store.DefaultBookSort(),
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGetAllBooksTotalsAndOwners(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	ada := registerUser(t, env.app, "Ada", "Lovelace", "ada@example.com")
	bob := registerUser(t, env.app, "Bob", "Gray", "bob@example.com")
	seedQueryBooks(t, env.store, ada)
	if err := env.store.SaveBook(domain.Book{
		ID: "b4", OwnerID: bob, Title: "It", Author: "Stephen King",
		Category: "Horror", Status: domain.StatusReading, Rating: 4,
		CreatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	res, err := env.app.GetAllBooks(ctx, AllBooksQuery{
		Page: 1, Limit: 2, Search: "an", Sort: store.BookSort{Field: store.SortByTitle},
	})
	if err != nil {
		t.Fatalf("GetAllBooks: %v", err)
	}
	// "an" matches Frank Herbert, Gillian Flynn, and Clean Code; It does not.
	if res.Total != 3 {
		t.Fatalf("total = %d, want 3", res.Total)
	}
	if res.TotalPages != 2 {
		t.Fatalf("totalPages = %d, want 2", res.TotalPages)
	}
	if res.TotalBooks != 4 {
		t.Fatalf("totalBooks = %d, want 4 (unfiltered catalogue size)", res.TotalBooks)
	}
	if res.Stats.Total != 3 {
		t.Fatalf("stats.total = %d, want 3 (filtered set)", res.Stats.Total)
	}
	if res.SortBy != store.SortByTitle || res.Order != "asc" {
		t.Fatalf("sort echo = %s/%s", res.SortBy, res.Order)
	}
	if len(res.Books) != 2 {
		t.Fatalf("page size = %d, want 2", len(res.Books))
	}
	if res.Books[0].Title != "Clean Code" || res.Books[1].Title != "Dune" {
		t.Fatalf("title order = %q, %q", res.Books[0].Title, res.Books[1].Title)
	}
	if res.Books[0].Owner.Name != "Ada Lovelace" || res.Books[0].Owner.Email != "ada@example.com" {
		t.Fatalf("owner = %+v", res.Books[0].Owner)
	}
}

func TestGetAllBooksMissingOwnerRecord(t *testing.T) {
	env := newTestApp(t)
	if err := env.store.SaveBook(domain.Book{
		ID: "orphan", OwnerID: "gone", Title: "Orphan", Author: "Nobody",
		Category: "Other", Status: domain.StatusRead,
	}); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}
	res, err := env.app.GetAllBooks(context.Background(), AllBooksQuery{
		Page: 1, Limit: 20, Sort: store.DefaultBookSort(),
	})
	if err != nil {
		t.Fatalf("GetAllBooks: %v", err)
	}
	if len(res.Books) != 1 {
		t.Fatalf("books = %d, want 1", len(res.Books))
	}
	if res.Books[0].Owner != (domain.BookOwner{}) {
		t.Fatalf("owner = %+v, want empty owner for a deleted account", res.Books[0].Owner)
	}
}
