package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"shelfmark/internal/util"
	"shelfmark/pkg/domain"
)

const (
	minTitleLen = 2
	maxTitleLen = 50
	maxRating   = 5
)

// BookFields carries partial book data from a request. Nil pointers
// leave the corresponding field untouched on update and fall back to a
// default on create.
type BookFields struct {
	Title    *string
	Author   *string
	Category *string
	Status   *string
	Rating   *int
	Review   *string
}

// CreateBook stores a new book for owner. Missing optional fields get
// defaults: author "Unknown Author", category "Other", status "Read".
func (a *App) CreateBook(ctx context.Context, ownerID string, fields BookFields, cover *Upload) (domain.Book, error) {
	now := time.Now().UTC()
	book := domain.Book{
		ID:        util.NewID(),
		OwnerID:   ownerID,
		Author:    domain.DefaultAuthor,
		Category:  domain.DefaultCategory,
		Status:    domain.StatusRead,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.applyBookFields(&book, fields); err != nil {
		return domain.Book{}, err
	}
	if book.Title == "" {
		return domain.Book{}, ErrTitleLength
	}
	if cover != nil {
		key, url, err := a.storeImage(ctx, "covers", cover)
		if err != nil {
			return domain.Book{}, err
		}
		book.CoverImageID = key
		book.CoverImage = url
	}
	if err := a.store.SaveBook(book); err != nil {
		a.releaseOrphan(ctx, book.CoverImageID)
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// GetBook returns one of the caller's own books. Books of other users
// are indistinguishable from missing ones.
func (a *App) GetBook(ctx context.Context, ownerID, bookID string) (domain.Book, error) {
	book, ok, err := a.store.GetBook(bookID)
	if err != nil {
		return domain.Book{}, fmt.Errorf("lookup book: %w", err)
	}
	if !ok || book.OwnerID != ownerID {
		return domain.Book{}, ErrBookNotFound
	}
	return book, nil
}

// UpdateBook applies a partial update to one of the caller's books.
// Replacing the cover releases the previously stored image.
func (a *App) UpdateBook(ctx context.Context, ownerID, bookID string, fields BookFields, cover *Upload) (domain.Book, error) {
	book, err := a.GetBook(ctx, ownerID, bookID)
	if err != nil {
		return domain.Book{}, err
	}
	if err := a.applyBookFields(&book, fields); err != nil {
		return domain.Book{}, err
	}
	oldCoverID := ""
	if cover != nil {
		key, url, err := a.storeImage(ctx, "covers", cover)
		if err != nil {
			return domain.Book{}, err
		}
		oldCoverID = book.CoverImageID
		book.CoverImageID = key
		book.CoverImage = url
	}
	book.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveBook(book); err != nil {
		if cover != nil {
			a.releaseOrphan(ctx, book.CoverImageID)
		}
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	if err := a.scheduleCleanup(ctx, oldCoverID); err != nil {
		util.LoggerFromContext(ctx).Warn("cover cleanup not scheduled",
			"book_id", book.ID, "object_key", oldCoverID, "error", err)
	}
	return book, nil
}

// DeleteBook removes one of the caller's books and releases its cover
// image.
func (a *App) DeleteBook(ctx context.Context, ownerID, bookID string) error {
	book, err := a.GetBook(ctx, ownerID, bookID)
	if err != nil {
		return err
	}
	if err := a.store.DeleteBook(bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if err := a.scheduleCleanup(ctx, book.CoverImageID); err != nil {
		util.LoggerFromContext(ctx).Warn("cover cleanup not scheduled",
			"book_id", book.ID, "object_key", book.CoverImageID, "error", err)
	}
	return nil
}

func (a *App) applyBookFields(book *domain.Book, fields BookFields) error {
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
			return ErrTitleLength
		}
		book.Title = title
	}
	if fields.Author != nil {
		author := strings.TrimSpace(*fields.Author)
		if author == "" {
			author = domain.DefaultAuthor
		}
		book.Author = author
	}
	if fields.Category != nil {
		category := strings.TrimSpace(*fields.Category)
		if category == "" {
			category = domain.DefaultCategory
		}
		if !a.validCategory(category) {
			return ErrInvalidCategory
		}
		book.Category = category
	}
	if fields.Status != nil {
		status, ok := domain.ParseReadingStatus(*fields.Status)
		if !ok {
			return ErrInvalidStatus
		}
		book.Status = status
	}
	if fields.Rating != nil {
		if *fields.Rating < 0 || *fields.Rating > maxRating {
			return ErrInvalidRating
		}
		book.Rating = *fields.Rating
	}
	if fields.Review != nil {
		book.Review = strings.TrimSpace(*fields.Review)
	}
	if a.requireRatingWithReview && book.Review != "" && book.Rating == 0 {
		return ErrRatingRequired
	}
	return nil
}
