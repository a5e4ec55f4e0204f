package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day string, hour int) time.Time {
	t, _ := time.Parse(DateLayout, day)
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestSentimentSeriesBackfillsGap(t *testing.T) {
	reviews := []ReviewPoint{
		{CreatedAt: at("2024-03-01", 9), Sentiment: "positive"},
		{CreatedAt: at("2024-03-01", 18), Sentiment: "positive"},
		{CreatedAt: at("2024-03-03", 12), Sentiment: "negative"},
	}

	series, err := SentimentSeries(reviews, "2024-03-01", "2024-03-03")
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, series.Dates)
	assert.Equal(t, []float64{100, 100, 0}, series.Sentiment)
	assert.Equal(t, []int{2, 0, 1}, series.Volume)
}

func TestSentimentSeriesOneEntryPerDay(t *testing.T) {
	series, err := SentimentSeries(nil, "2024-02-27", "2024-03-02")
	require.NoError(t, err)

	// 2024 is a leap year
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, series.Dates)
	assert.Len(t, series.Sentiment, 5)
	assert.Len(t, series.Volume, 5)
}

func TestSentimentSeriesDefaultWhenEmpty(t *testing.T) {
	series, err := SentimentSeries(nil, "2024-01-01", "2024-01-03")
	require.NoError(t, err)

	assert.Equal(t, []float64{DefaultScore, DefaultScore, DefaultScore}, series.Sentiment)
	assert.Equal(t, []int{0, 0, 0}, series.Volume)
}

func TestSentimentSeriesLooksAheadForLeadingGap(t *testing.T) {
	reviews := []ReviewPoint{
		{CreatedAt: at("2024-01-03", 1), Sentiment: "neutral"},
		{CreatedAt: at("2024-01-03", 2), Sentiment: "negative"},
	}

	series, err := SentimentSeries(reviews, "2024-01-01", "2024-01-04")
	require.NoError(t, err)

	assert.Equal(t, []float64{25, 25, 25, 25}, series.Sentiment)
}

func TestSentimentSeriesMissingLabelIsNeutral(t *testing.T) {
	reviews := []ReviewPoint{
		{CreatedAt: at("2024-05-10", 0)},
		{CreatedAt: at("2024-05-10", 1), Sentiment: "positive"},
	}

	series, err := SentimentSeries(reviews, "2024-05-10", "2024-05-10")
	require.NoError(t, err)

	assert.Equal(t, []float64{75}, series.Sentiment)
}

func TestSentimentSeriesIgnoresOutOfRange(t *testing.T) {
	reviews := []ReviewPoint{
		{CreatedAt: at("2024-05-09", 23), Sentiment: "negative"},
		{CreatedAt: at("2024-05-12", 0), Sentiment: "negative"},
	}

	series, err := SentimentSeries(reviews, "2024-05-10", "2024-05-11")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0}, series.Volume)
	assert.Equal(t, []float64{DefaultScore, DefaultScore}, series.Sentiment)
}

func TestSentimentSeriesScoresStayInRange(t *testing.T) {
	labels := []string{"positive", "neutral", "negative", "", "mixed"}
	var reviews []ReviewPoint
	for i := 0; i < 40; i++ {
		reviews = append(reviews, ReviewPoint{
			CreatedAt: at("2024-06-01", 0).Add(time.Duration(i*7) * time.Hour),
			Sentiment: labels[i%len(labels)],
		})
	}

	series, err := SentimentSeries(reviews, "2024-06-01", "2024-06-20")
	require.NoError(t, err)

	for i, score := range series.Sentiment {
		assert.GreaterOrEqual(t, score, 0.0, "day %s", series.Dates[i])
		assert.LessOrEqual(t, score, 100.0, "day %s", series.Dates[i])
	}
}

func TestSentimentSeriesInvalidInput(t *testing.T) {
	_, err := SentimentSeries(nil, "2024-13-01", "2024-12-01")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = SentimentSeries(nil, "2024-01-01", "yesterday")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = SentimentSeries(nil, "2024-01-05", "2024-01-01")
	assert.ErrorIs(t, err, ErrInvalidRange)
}
