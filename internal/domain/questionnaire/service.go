package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("questionnaire: not found")
	ErrInvalid  = errors.New("questionnaire: invalid input")
	// ErrInUse is returned for structural changes to a questionnaire that
	// already has assignments.
	ErrInUse = errors.New("questionnaire: referenced by assignments")
)

type Service struct {
	questionnaires QuestionnaireRepository
	questions      QuestionRepository
	assignments    AssignmentCounter
}

func NewService(questionnaires QuestionnaireRepository, questions QuestionRepository, assignments AssignmentCounter) *Service {
	return &Service{
		questionnaires: questionnaires,
		questions:      questions,
		assignments:    assignments,
	}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// -- Questionnaire --

func (s *Service) CreateQuestionnaire(ctx context.Context, q *Questionnaire) error {
	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		return invalid("title is required")
	}
	if err := s.questionnaires.Create(ctx, q); err != nil {
		return fmt.Errorf("create questionnaire: %w", err)
	}
	return nil
}

func (s *Service) GetQuestionnaire(ctx context.Context, id int64) (*Questionnaire, error) {
	return s.questionnaires.GetByID(ctx, id)
}

// UpdateQuestionnaire changes title and description. Text edits are allowed
// even when the questionnaire is in use.
func (s *Service) UpdateQuestionnaire(ctx context.Context, q *Questionnaire) error {
	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		return invalid("title is required")
	}
	return s.questionnaires.Update(ctx, q)
}

func (s *Service) DeleteQuestionnaire(ctx context.Context, id int64) error {
	if _, err := s.questionnaires.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.checkNotInUse(ctx, id); err != nil {
		return err
	}
	return s.questionnaires.Delete(ctx, id)
}

func (s *Service) ListQuestionnaires(ctx context.Context, limit, offset int) ([]*Questionnaire, int, error) {
	return s.questionnaires.List(ctx, limit, offset)
}

// Exists reports whether a questionnaire with id is in the catalogue.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.questionnaires.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) checkNotInUse(ctx context.Context, questionnaireID int64) error {
	if s.assignments == nil {
		return nil
	}
	n, err := s.assignments.CountByQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return fmt.Errorf("count assignments: %w", err)
	}
	if n > 0 {
		return ErrInUse
	}
	return nil
}

// -- Question --

func prepareQuestion(q *Question) error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return invalid("question text is required")
	}
	q.Options = q.Options.Compact()
	if len(q.Options) == 0 {
		return invalid("at least one option with text is required")
	}
	return nil
}

func (s *Service) CreateQuestion(ctx context.Context, q *Question) error {
	if err := prepareQuestion(q); err != nil {
		return err
	}
	if _, err := s.questionnaires.GetByID(ctx, q.QuestionnaireID); err != nil {
		return err
	}
	if err := s.checkNotInUse(ctx, q.QuestionnaireID); err != nil {
		return err
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

func (s *Service) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	return s.questions.GetByID(ctx, id)
}

// UpdateQuestion replaces a question's text and options. Once the
// questionnaire is in use only the text may change.
func (s *Service) UpdateQuestion(ctx context.Context, q *Question) error {
	if err := prepareQuestion(q); err != nil {
		return err
	}
	existing, err := s.questions.GetByID(ctx, q.ID)
	if err != nil {
		return err
	}
	q.QuestionnaireID = existing.QuestionnaireID
	q.CreatedAt = existing.CreatedAt
	if !q.Options.Equal(existing.Options) {
		if err := s.checkNotInUse(ctx, existing.QuestionnaireID); err != nil {
			return err
		}
	}
	return s.questions.Update(ctx, q)
}

func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	existing, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkNotInUse(ctx, existing.QuestionnaireID); err != nil {
		return err
	}
	return s.questions.Delete(ctx, id)
}

// Questions lists a questionnaire's questions in id order.
func (s *Service) Questions(ctx context.Context, questionnaireID int64) ([]*Question, error) {
	if _, err := s.questionnaires.GetByID(ctx, questionnaireID); err != nil {
		return nil, err
	}
	return s.questions.ListByQuestionnaire(ctx, questionnaireID)
}
