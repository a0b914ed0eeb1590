package app

import (
	"math"
	"strings"

	"shelfmark/pkg/domain"
)

// StatusCounts breaks a collection down by reading status.
type StatusCounts struct {
	Read    int `json:"read"`
	ToRead  int `json:"toRead"`
	Reading int `json:"reading"`
}

// BookStats summarises a set of books. AverageRating covers only books
// that actually carry a rating; a shelf of unrated books averages to 0
// rather than being dragged down by zeros.
type BookStats struct {
	Total         int            `json:"total"`
	WithReviews   int            `json:"withReviews"`
	AverageRating float64        `json:"averageRating"`
	ByCategory    map[string]int `json:"byCategory"`
	Status        StatusCounts   `json:"status"`
}

// CalcBookStats aggregates books in a single pass. ByCategory contains
// only categories that occur in the input, never the full category list.
func CalcBookStats(books []domain.Book) BookStats {
	stats := BookStats{
		Total:      len(books),
		ByCategory: make(map[string]int),
	}
	ratingSum := 0
	rated := 0
	for _, b := range books {
		if strings.TrimSpace(b.Review) != "" {
			stats.WithReviews++
		}
		if b.Rating > 0 {
			ratingSum += b.Rating
			rated++
		}
		stats.ByCategory[b.Category]++
		switch b.Status {
		case domain.StatusRead:
			stats.Status.Read++
		case domain.StatusToRead:
			stats.Status.ToRead++
		case domain.StatusReading:
			stats.Status.Reading++
		}
	}
	if rated > 0 {
		avg := float64(ratingSum) / float64(rated)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats
}
