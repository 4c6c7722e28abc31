package poll

import (
	"sort"
	"time"
)

// IsPublished reports whether the question is visible to non-admins at now.
func (q Question) IsPublished(now time.Time) bool {
	return !q.PubDate.After(now)
}

// HasChoices reports whether the question owns at least one choice.
func (q Question) HasChoices() bool {
	return len(q.Choices) > 0
}

// Bucket orders questions for the admin listing: published questions with
// choices come first, then future ones with choices, then the choiceless ones
// in the same published/future order.
type Bucket int

const (
	BucketPublished Bucket = iota
	BucketUpcoming
	BucketPublishedChoiceless
	BucketUpcomingChoiceless
)

func (q Question) VisibilityBucket(now time.Time) Bucket {
	switch {
	case q.IsPublished(now) && q.HasChoices():
		return BucketPublished
	case q.HasChoices():
		return BucketUpcoming
	case q.IsPublished(now):
		return BucketPublishedChoiceless
	default:
		return BucketUpcomingChoiceless
	}
}

// FilterPublic returns only published questions with choices, ordered by
// (pub_date, id) ascending. The id tie-break keeps pagination stable when
// publish timestamps collide.
func FilterPublic(questions []Question, now time.Time) []Question {
	visible := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.IsPublished(now) && q.HasChoices() {
			visible = append(visible, q)
		}
	}
	sortByPubDate(visible)
	return visible
}

// SortForAdmin orders questions by bucket, then (pub_date, id) ascending
// within each bucket.
func SortForAdmin(questions []Question, now time.Time) {
	sort.SliceStable(questions, func(i, j int) bool {
		bi, bj := questions[i].VisibilityBucket(now), questions[j].VisibilityBucket(now)
		if bi != bj {
			return bi < bj
		}
		if !questions[i].PubDate.Equal(questions[j].PubDate) {
			return questions[i].PubDate.Before(questions[j].PubDate)
		}
		return questions[i].ID < questions[j].ID
	})
}

func sortByPubDate(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		if !questions[i].PubDate.Equal(questions[j].PubDate) {
			return questions[i].PubDate.Before(questions[j].PubDate)
		}
		return questions[i].ID < questions[j].ID
	})
}
