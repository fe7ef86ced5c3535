package assessment

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
)

// Compare diffs two completed attempts of the same questionnaire. Rows follow
// A's responses; TotalDelta is B's score minus A's.
func (s *Service) Compare(ctx context.Context, patientID, assignmentA, assignmentB int64) (*Comparison, error) {
	a, err := s.ownedAssignment(ctx, patientID, assignmentA)
	if err != nil {
		return nil, err
	}
	b, err := s.ownedAssignment(ctx, patientID, assignmentB)
	if err != nil {
		return nil, err
	}
	if err := checkComparable(a, b); err != nil {
		return nil, err
	}

	var (
		respA, respB []*Response
		questions    map[int64]*questionnaire.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := s.responses.ListByAssignment(gctx, a.ID)
		if err != nil {
			return storeErr(fmt.Sprintf("list responses of %d", a.ID), err)
		}
		respA = rs
		return nil
	})
	g.Go(func() error {
		rs, err := s.responses.ListByAssignment(gctx, b.ID)
		if err != nil {
			return storeErr(fmt.Sprintf("list responses of %d", b.ID), err)
		}
		respB = rs
		return nil
	})
	g.Go(func() error {
		idx, err := s.questionIndex(gctx, a.QuestionnaireID)
		questions = idx
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	texts := make(map[int64]string, len(questions))
	for id, q := range questions {
		texts[id] = q.Text
	}
	return BuildComparison(a, b, respA, respB, texts), nil
}

func checkComparable(a, b *Assignment) error {
	if !a.Completed || !b.Completed {
		return fmt.Errorf("%w: both assignments must be completed", ErrIncomparableAssignments)
	}
	if a.QuestionnaireID != b.QuestionnaireID {
		return fmt.Errorf("%w: questionnaires %d and %d differ",
			ErrIncomparableAssignments, a.QuestionnaireID, b.QuestionnaireID)
	}
	return nil
}

// BuildComparison expects both assignments completed. Rows are ordered by
// question id; absent question texts render as empty.
func BuildComparison(a, b *Assignment, respA, respB []*Response, texts map[int64]string) *Comparison {
	respA = append([]*Response(nil), respA...)
	sort.Slice(respA, func(i, j int) bool { return respA[i].QuestionID < respA[j].QuestionID })

	inB := make(map[int64]*Response, len(respB))
	for _, r := range respB {
		inB[r.QuestionID] = r
	}

	rows := make([]QuestionDelta, 0, len(respA))
	for _, ra := range respA {
		row := QuestionDelta{
			QuestionID: ra.QuestionID,
			Text:       texts[ra.QuestionID],
			ValueA:     ra.AnswerValue,
			TextA:      ra.AnswerText,
		}
		if rb, ok := inB[ra.QuestionID]; ok {
			valueB, textB := rb.AnswerValue, rb.AnswerText
			delta := valueB - ra.AnswerValue
			row.ValueB, row.TextB, row.Delta = &valueB, &textB, &delta
		} else {
			row.MissingInB = true
		}
		rows = append(rows, row)
	}

	return &Comparison{
		AssignmentA:     a.ID,
		AssignmentB:     b.ID,
		QuestionnaireID: a.QuestionnaireID,
		PerQuestion:     rows,
		TotalDelta:      scoreOf(b) - scoreOf(a),
	}
}

func scoreOf(a *Assignment) int {
	if a.TotalScore == nil {
		return 0
	}
	return *a.TotalScore
}
