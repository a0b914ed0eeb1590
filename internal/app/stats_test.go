package app

import (
	"testing"

	"shelfmark/pkg/domain"
)

func TestCalcBookStatsAverageSkipsUnrated(t *testing.T) {
	books := []domain.Book{
		{Rating: 0, Status: domain.StatusRead, Category: "Fiction"},
		{Rating: 4, Status: domain.StatusRead, Category: "Fiction"},
		{Rating: 0, Status: domain.StatusToRead, Category: "Mystery"},
		{Rating: 5, Status: domain.StatusReading, Category: "Science"},
	}
	stats := CalcBookStats(books)
	if stats.AverageRating != 4.5 {
		t.Fatalf("averageRating = %v, want 4.5 (unrated books must not dilute the average)", stats.AverageRating)
	}
	if stats.Total != 4 {
		t.Fatalf("total = %d, want 4", stats.Total)
	}
}

func TestCalcBookStatsRoundsToOneDecimal(t *testing.T) {
	books := []domain.Book{
		{Rating: 5, Status: domain.StatusRead, Category: "Fiction"},
		{Rating: 4, Status: domain.StatusRead, Category: "Fiction"},
		{Rating: 4, Status: domain.StatusRead, Category: "Fiction"},
	}
	// 13/3 = 4.333... -> 4.3
	if got := CalcBookStats(books).AverageRating; got != 4.3 {
		t.Fatalf("averageRating = %v, want 4.3", got)
	}
}

func TestCalcBookStatsAllUnrated(t *testing.T) {
	books := []domain.Book{
		{Status: domain.StatusRead, Category: "Fiction"},
		{Status: domain.StatusToRead, Category: "Fiction"},
	}
	if got := CalcBookStats(books).AverageRating; got != 0 {
		t.Fatalf("averageRating = %v, want 0 for an unrated shelf", got)
	}
}

func TestCalcBookStatsByCategoryOmitsAbsent(t *testing.T) {
	books := []domain.Book{
		{Status: domain.StatusRead, Category: "Fiction"},
		{Status: domain.StatusRead, Category: "Fiction"},
		{Status: domain.StatusRead, Category: "Mystery"},
	}
	stats := CalcBookStats(books)
	if len(stats.ByCategory) != 2 {
		t.Fatalf("byCategory has %d entries, want 2 (only categories that occur)", len(stats.ByCategory))
	}
	if stats.ByCategory["Fiction"] != 2 || stats.ByCategory["Mystery"] != 1 {
		t.Fatalf("byCategory = %v", stats.ByCategory)
	}
	if _, ok := stats.ByCategory["Horror"]; ok {
		t.Fatal("byCategory must not contain zero-count categories")
	}
}

func TestCalcBookStatsStatusAndReviews(t *testing.T) {
	books := []domain.Book{
		{Status: domain.StatusRead, Category: "Fiction", Review: "great"},
		{Status: domain.StatusRead, Category: "Fiction"},
		{Status: domain.StatusToRead, Category: "Mystery"},
		{Status: domain.StatusReading, Category: "Science", Review: "so far so good"},
	}
	stats := CalcBookStats(books)
	if stats.Status.Read != 2 || stats.Status.ToRead != 1 || stats.Status.Reading != 1 {
		t.Fatalf("status = %+v", stats.Status)
	}
	if stats.WithReviews != 2 {
		t.Fatalf("withReviews = %d, want 2", stats.WithReviews)
	}
}

func TestCalcBookStatsBlankReviewDoesNotCount(t *testing.T) {
	books := []domain.Book{
		{Status: domain.StatusRead, Category: "Fiction", Review: "   \t\n"},
		{Status: domain.StatusRead, Category: "Fiction", Review: "great"},
	}
	if got := CalcBookStats(books).WithReviews; got != 1 {
		t.Fatalf("withReviews = %d, want 1 (whitespace-only review is no review)", got)
	}
}

func TestCalcBookStatsEmpty(t *testing.T) {
	stats := CalcBookStats(nil)
	if stats.Total != 0 || stats.AverageRating != 0 || len(stats.ByCategory) != 0 {
		t.Fatalf("stats = %+v, want zero values", stats)
	}
}
