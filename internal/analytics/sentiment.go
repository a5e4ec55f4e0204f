// Package analytics содержит чистые преобразования отзывов во временные ряды
package analytics

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DateLayout - формат дня во входе и выходе
	DateLayout = "2006-01-02"
	// DefaultScore подставляется, когда в диапазоне нет ни одного отзыва
	DefaultScore = 70.0
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("end date is before start date")
)

// ReviewPoint - минимум данных отзыва для агрегации
type ReviewPoint struct {
	CreatedAt time.Time
	Sentiment string
}

// Series - параллельные ряды по дням
type Series struct {
	Dates     []string  `json:"dates"`
	Sentiment []float64 `json:"sentiment"`
	Volume    []int     `json:"volume"`
}

type bucket struct {
	positive int
	neutral  int
	negative int
}

func (b bucket) total() int {
	return b.positive + b.neutral + b.negative
}

// SentimentSeries строит по одному значению на каждый день [start, end].
// Дни без отзывов получают последнее известное значение, иначе следующее
// известное, иначе DefaultScore.
func SentimentSeries(reviews []ReviewPoint, start, end string) (*Series, error) {
	from, err := ParseDay(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDay(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	days := int(to.Sub(from).Hours()/24) + 1
	buckets := make([]bucket, days)

	for _, r := range reviews {
		day := r.CreatedAt.UTC().Truncate(24 * time.Hour)
		if day.Before(from) || day.After(to) {
			continue
		}
		idx := int(day.Sub(from).Hours() / 24)
		switch r.Sentiment {
		case "positive":
			buckets[idx].positive++
		case "negative":
			buckets[idx].negative++
		default:
			buckets[idx].neutral++
		}
	}

	series := &Series{
		Dates:     make([]string, days),
		Sentiment: make([]float64, days),
		Volume:    make([]int, days),
	}

	scores := make([]*float64, days)
	for i, b := range buckets {
		series.Dates[i] = from.AddDate(0, 0, i).Format(DateLayout)
		series.Volume[i] = b.total()
		if total := b.total(); total > 0 {
			score := float64(b.positive*100+b.neutral*50) / float64(total)
			scores[i] = &score
		}
	}

	for i := range scores {
		series.Sentiment[i] = fillScore(scores, i)
	}

	return series, nil
}

func fillScore(scores []*float64, i int) float64 {
	if scores[i] != nil {
		return *scores[i]
	}
	for j := i - 1; j >= 0; j-- {
		if scores[j] != nil {
			return *scores[j]
		}
	}
	for j := i + 1; j < len(scores); j++ {
		if scores[j] != nil {
			return *scores[j]
		}
	}
	return DefaultScore
}

// ParseDay разбирает день в UTC
func ParseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}
