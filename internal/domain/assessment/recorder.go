package assessment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
)

// Submit records a full set of answers for the assignment and completes it.
// Existing responses are replaced, so submitting again on a completed
// assignment edits that attempt in place.
func (s *Service) Submit(ctx context.Context, patientID, assignmentID int64, answers map[int64]Choice) (*SubmitResult, error) {
	a, err := s.ownedAssignment(ctx, patientID, assignmentID)
	if err != nil {
		return nil, err
	}

	questions, err := s.catalogue.Questions(ctx, a.QuestionnaireID)
	if err != nil {
		return nil, storeErr("load questions", err)
	}
	resolved, err := ResolveAnswers(questions, answers)
	if err != nil {
		return nil, err
	}
	total := Score(resolved)
	completedAt := s.now()

	responses := make([]*Response, len(resolved))
	for i, r := range resolved {
		responses[i] = &Response{
			AssignmentID: assignmentID,
			QuestionID:   r.QuestionID,
			AnswerText:   r.Text,
			AnswerValue:  r.Value,
		}
	}

	var resubmission bool
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := s.assignments.GetForUpdate(ctx, assignmentID)
		if err != nil {
			return storeErr("lock assignment", err)
		}
		if locked.PatientID != patientID {
			return fmt.Errorf("assignment %d: %w", assignmentID, ErrNotFound)
		}
		removed, err := s.responses.DeleteByAssignment(ctx, assignmentID)
		if err != nil {
			return storeErr("delete responses", err)
		}
		resubmission = removed > 0 || locked.Completed
		if err := s.responses.CreateBatch(ctx, responses); err != nil {
			return storeErr("insert responses", err)
		}
		if err := s.assignments.MarkCompleted(ctx, assignmentID, total, completedAt); err != nil {
			return storeErr("complete assignment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Submitted(resubmission)
	s.logger.Info().
		Int64("patient_id", patientID).
		Int64("assignment_id", assignmentID).
		Int64("questionnaire_id", a.QuestionnaireID).
		Int("total_score", total).
		Bool("resubmission", resubmission).
		Msg("submission recorded")

	return &SubmitResult{
		AssignmentID: assignmentID,
		TotalScore:   total,
		CompletedAt:  completedAt,
		Resubmission: resubmission,
	}, nil
}

// ResolveAnswers matches one answer per answerable question, in question id
// order. Questions whose options all have blank text are not answerable.
func ResolveAnswers(questions []*questionnaire.Question, answers map[int64]Choice) ([]ResolvedAnswer, error) {
	byID := make(map[int64]*questionnaire.Question, len(questions))
	var required []*questionnaire.Question
	for _, q := range questions {
		byID[q.ID] = q
		if q.Usable() {
			required = append(required, q)
		}
	}
	if len(required) == 0 {
		return nil, fmt.Errorf("%w: questionnaire has no answerable questions", ErrInvalidAnswer)
	}
	sort.Slice(required, func(i, j int) bool { return required[i].ID < required[j].ID })

	var missing []int64
	for _, q := range required {
		if _, ok := answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteSubmissionError{Missing: missing}
	}

	for qid := range answers {
		if q, ok := byID[qid]; !ok || !q.Usable() {
			return nil, fmt.Errorf("%w: question %d is not part of this questionnaire", ErrInvalidAnswer, qid)
		}
	}

	resolved := make([]ResolvedAnswer, 0, len(required))
	for _, q := range required {
		opt, err := answers[q.ID].resolve(q.Options)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		resolved = append(resolved, ResolvedAnswer{QuestionID: q.ID, Text: opt.Text, Value: opt.Value})
	}
	return resolved, nil
}

func (c Choice) resolve(opts questionnaire.Options) (questionnaire.Option, error) {
	selectable := func(o questionnaire.Option) bool { return strings.TrimSpace(o.Text) != "" }

	switch {
	case c.Index != nil:
		i := *c.Index
		if i < 0 || i >= len(opts) || !selectable(opts[i]) {
			return questionnaire.Option{}, fmt.Errorf("%w: no option at index %d", ErrInvalidAnswer, i)
		}
		return opts[i], nil

	case c.Text != nil:
		want := strings.TrimSpace(*c.Text)
		for _, o := range opts {
			if selectable(o) && strings.TrimSpace(o.Text) == want {
				return o, nil
			}
		}
		return questionnaire.Option{}, fmt.Errorf("%w: no option with text %q", ErrInvalidAnswer, want)

	case c.Value != nil:
		var match []questionnaire.Option
		for _, o := range opts {
			if selectable(o) && o.Value == *c.Value {
				match = append(match, o)
			}
		}
		switch len(match) {
		case 0:
			return questionnaire.Option{}, fmt.Errorf("%w: no option with value %d", ErrInvalidAnswer, *c.Value)
		case 1:
			return match[0], nil
		default:
			return questionnaire.Option{}, fmt.Errorf("%w: value %d matches %d options", ErrInvalidAnswer, *c.Value, len(match))
		}
	}
	return questionnaire.Option{}, fmt.Errorf("%w: empty choice", ErrInvalidAnswer)
}

// AssignmentResponses returns the assignment with its stored answers joined
// to the question texts. Deleted questions keep their answer with empty text.
func (s *Service) AssignmentResponses(ctx context.Context, patientID, assignmentID int64) (*AssignmentDetail, error) {
	a, err := s.ownedAssignment(ctx, patientID, assignmentID)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, storeErr("list responses", err)
	}
	questions, err := s.questionIndex(ctx, a.QuestionnaireID)
	if err != nil {
		return nil, err
	}

	detail := &AssignmentDetail{Assignment: a, Responses: make([]AnsweredQuestion, 0, len(responses))}
	for _, r := range responses {
		row := AnsweredQuestion{
			QuestionID:  r.QuestionID,
			AnswerText:  r.AnswerText,
			AnswerValue: r.AnswerValue,
			Options:     questionnaire.Options{},
		}
		if q, ok := questions[r.QuestionID]; ok {
			row.QuestionText = q.Text
			row.Options = q.Options
		}
		detail.Responses = append(detail.Responses, row)
	}
	return detail, nil
}

func (s *Service) questionIndex(ctx context.Context, questionnaireID int64) (map[int64]*questionnaire.Question, error) {
	questions, err := s.catalogue.Questions(ctx, questionnaireID)
	if err != nil {
		return nil, storeErr("load questions", err)
	}
	idx := make(map[int64]*questionnaire.Question, len(questions))
	for _, q := range questions {
		idx[q.ID] = q
	}
	return idx, nil
}
