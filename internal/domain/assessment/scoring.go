package assessment

// Score is the plain sum of the resolved option values.
func Score(resolved []ResolvedAnswer) int {
	total := 0
	for _, r := range resolved {
		total += r.Value
	}
	return total
}

// ScoreResponses sums stored response values.
func ScoreResponses(responses []*Response) int {
	total := 0
	for _, r := range responses {
		total += r.AnswerValue
	}
	return total
}
