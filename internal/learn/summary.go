package learn

import "math"

// Summary aggregates the results of a session.
type Summary struct {
	Total                int     `json:"total"`
	Correct              int     `json:"correct"`
	Incorrect            int     `json:"incorrect"`
	FirstAttemptCorrect  int     `json:"first_attempt_correct"`
	SecondAttemptCorrect int     `json:"second_attempt_correct"`
	Percentage           float64 `json:"percentage"`
}

// Summarize folds the session results into totals. Cards that were never
// attempted count toward Total only. Percentage is correct/total rounded to
// one decimal place.
func Summarize(s *Session) Summary {
	sum := Summary{Total: s.total}
	for _, r := range s.results {
		if !r.Correct {
			sum.Incorrect++
			continue
		}
		sum.Correct++
		if r.Attempts == 1 {
			sum.FirstAttemptCorrect++
		} else {
			sum.SecondAttemptCorrect++
		}
	}
	if sum.Total > 0 {
		sum.Percentage = math.Round(float64(sum.Correct)/float64(sum.Total)*1000) / 10
	}
	return sum
}
