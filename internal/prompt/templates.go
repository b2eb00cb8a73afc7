// Package prompt builds the chat prompts used to generate workouts. The
// template is chosen by the requested duration.
package prompt

import (
	"fmt"

	"github.com/fitonboard/backend/pkg/apperrors"
)

type Bucket string

const (
	BucketQuick     Bucket = "quick"
	BucketStandard  Bucket = "standard"
	BucketExtended  Bucket = "extended"
	BucketEndurance Bucket = "endurance"
)

// Range is an inclusive bound on the number of main exercises.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Distance is how far n falls outside the range, 0 when inside.
func (r Range) Distance(n int) int {
	switch {
	case n < r.Min:
		return r.Min - n
	case n > r.Max:
		return n - r.Max
	}
	return 0
}

type Template struct {
	Bucket          Bucket
	MaxMinutes      int // 0 means no upper bound
	WarmUpMinutes   int
	CoolDownMinutes int
	Exercises       Range
	Focus           string
}

// MainMinutes is what is left of duration after warm-up and cool-down.
func (t Template) MainMinutes(duration int) int {
	m := duration - t.WarmUpMinutes - t.CoolDownMinutes
	if m < 1 {
		return 1
	}
	return m
}

var templates = []Template{
	{
		Bucket:          BucketQuick,
		MaxMinutes:      20,
		WarmUpMinutes:   3,
		CoolDownMinutes: 2,
		Exercises:       Range{Min: 3, Max: 5},
		Focus:           "a compact, efficient session with compound movements and minimal rest",
	},
	{
		Bucket:          BucketStandard,
		MaxMinutes:      45,
		WarmUpMinutes:   5,
		CoolDownMinutes: 5,
		Exercises:       Range{Min: 4, Max: 7},
		Focus:           "a balanced session that covers every selected body area",
	},
	{
		Bucket:          BucketExtended,
		MaxMinutes:      75,
		WarmUpMinutes:   8,
		CoolDownMinutes: 7,
		Exercises:       Range{Min: 6, Max: 10},
		Focus:           "a thorough session with accessory work and structured rest periods",
	},
	{
		Bucket:          BucketEndurance,
		WarmUpMinutes:   10,
		CoolDownMinutes: 10,
		Exercises:       Range{Min: 6, Max: 12},
		Focus:           "a long session that manages fatigue, alternating intensity blocks with recovery",
	},
}

// Select returns the template for a session of duration minutes.
func Select(duration int) (Template, error) {
	if duration <= 0 {
		return Template{}, apperrors.Validation("invalid duration",
			apperrors.FieldError{Field: "durationMinutes", Message: fmt.Sprintf("duration must be positive, got %d", duration)})
	}
	for _, t := range templates {
		if t.MaxMinutes == 0 || duration <= t.MaxMinutes {
			return t, nil
		}
	}
	return templates[len(templates)-1], nil
}

// ForBucket looks a template up by bucket name.
func ForBucket(b Bucket) (Template, bool) {
	for _, t := range templates {
		if t.Bucket == b {
			return t, true
		}
	}
	return Template{}, false
}

func Buckets() []Bucket {
	out := make([]Bucket, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.Bucket)
	}
	return out
}
