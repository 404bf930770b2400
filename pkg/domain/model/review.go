package model

import "time"

// Review is one reviewer's verdict on a story. Reviews are created once
// and immutable afterwards; their lifetime is bound to the owning story.
type Review struct {
	ID        int64
	CreatedAt time.Time
	StoryID   int64
	Reviewer  string
	Accepted  bool
	Content   string
}

// ReviewTally summarizes the verdicts recorded for one story. The workflow
// never gates publication on it; it exists for display only.
type ReviewTally struct {
	Accepted int
	Rejected int
}

// Tally counts verdicts over a list of reviews.
func Tally(reviews []*Review) ReviewTally {
	var t ReviewTally
	for _, r := range reviews {
		if r.Accepted {
			t.Accepted++
		} else {
			t.Rejected++
		}
	}
	return t
}
