package analyzer

import "math"

// Rating buckets a score into the three bands shown next to results.
type Rating string

const (
	RatingGood    Rating = "good"
	RatingAverage Rating = "average"
	RatingPoor    Rating = "poor"
)

// DifficultyRating: below 30 is easy, below 70 is medium.
func DifficultyRating(difficulty int) Rating {
	switch {
	case difficulty < 30:
		return RatingGood
	case difficulty < 70:
		return RatingAverage
	default:
		return RatingPoor
	}
}

// AuthorityRating: 70 and above is strong, 40 and above is medium.
func AuthorityRating(authority int) Rating {
	switch {
	case authority >= 70:
		return RatingGood
	case authority >= 40:
		return RatingAverage
	default:
		return RatingPoor
	}
}

// AuditRating grades a site audit score.
func AuditRating(score int) Rating {
	switch {
	case score >= 80:
		return RatingGood
	case score >= 60:
		return RatingAverage
	default:
		return RatingPoor
	}
}

// SpeedRating grades a page-speed score.
func SpeedRating(score int) Rating {
	switch {
	case score >= 90:
		return RatingGood
	case score >= 50:
		return RatingAverage
	default:
		return RatingPoor
	}
}

// BacklinkSummary aggregates a backlink profile
type BacklinkSummary struct {
	Total            int `json:"total"`
	AverageAuthority int `json:"averageAuthority"`
	Dofollow         int `json:"dofollow"`
	Nofollow         int `json:"nofollow"`
}

// SummarizeBacklinks computes the rounded average authority and the
// dofollow/nofollow split.
func SummarizeBacklinks(records []BacklinkRecord) BacklinkSummary {
	summary := BacklinkSummary{Total: len(records)}
	if len(records) == 0 {
		return summary
	}

	total := 0
	for _, r := range records {
		total += r.Authority
		switch r.Type {
		case Dofollow:
			summary.Dofollow++
		case Nofollow:
			summary.Nofollow++
		}
	}
	summary.AverageAuthority = int(math.Round(float64(total) / float64(len(records))))
	return summary
}
