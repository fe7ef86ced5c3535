package questionnaire

import "context"

type QuestionnaireRepository interface {
	Create(ctx context.Context, q *Questionnaire) error
	GetByID(ctx context.Context, id int64) (*Questionnaire, error)
	Update(ctx context.Context, q *Questionnaire) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Questionnaire, int, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, id int64) (*Question, error)
	Update(ctx context.Context, q *Question) error
	Delete(ctx context.Context, id int64) error
	// ListByQuestionnaire returns the questions in id order.
	ListByQuestionnaire(ctx context.Context, questionnaireID int64) ([]*Question, error)
}

// AssignmentCounter reports how many assignments reference a questionnaire.
type AssignmentCounter interface {
	CountByQuestionnaire(ctx context.Context, questionnaireID int64) (int, error)
}
