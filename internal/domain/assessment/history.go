package assessment

import (
	"context"
	"sort"
)

// CurrentAndHistory groups the patient's assignments by questionnaire.
func (s *Service) CurrentAndHistory(ctx context.Context, patientID int64) (map[int64]*HistoryEntry, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, storeErr("list assignments", err)
	}
	return BuildHistory(assignments), nil
}

// BuildHistory orders each questionnaire's assignments by assigned_at
// descending, then id descending. Current is the first pending assignment,
// or the most recent one when none is pending.
func BuildHistory(assignments []*Assignment) map[int64]*HistoryEntry {
	entries := make(map[int64]*HistoryEntry)
	for _, a := range assignments {
		e, ok := entries[a.QuestionnaireID]
		if !ok {
			e = &HistoryEntry{QuestionnaireID: a.QuestionnaireID}
			entries[a.QuestionnaireID] = e
		}
		e.History = append(e.History, a)
	}

	for _, e := range entries {
		sort.SliceStable(e.History, func(i, j int) bool {
			return newerThan(e.History[i], e.History[j])
		})
		e.Current = e.History[0]
		for _, a := range e.History {
			if a.Pending() {
				e.Current = a
				break
			}
		}
	}
	return entries
}

func newerThan(a, b *Assignment) bool {
	if !a.AssignedAt.Equal(b.AssignedAt) {
		return a.AssignedAt.After(b.AssignedAt)
	}
	return a.ID > b.ID
}

// SortedEntries returns the entries ordered by questionnaire id.
func SortedEntries(entries map[int64]*HistoryEntry) []*HistoryEntry {
	out := make([]*HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionnaireID < out[j].QuestionnaireID })
	return out
}
