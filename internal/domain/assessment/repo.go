package assessment

import (
	"context"
	"time"

	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
)

type AssignmentRepository interface {
	// ListByPatient returns every assignment of the patient, newest first.
	ListByPatient(ctx context.Context, patientID int64) ([]*Assignment, error)
	GetByID(ctx context.Context, id int64) (*Assignment, error)
	// GetForUpdate reads the assignment and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Assignment, error)
	Create(ctx context.Context, a *Assignment) error
	// DeletePending removes the assignment only while it is still pending and
	// reports whether a row was removed.
	DeletePending(ctx context.Context, id int64) (bool, error)
	MarkCompleted(ctx context.Context, id int64, totalScore int, completedAt time.Time) error
	CountByQuestionnaire(ctx context.Context, questionnaireID int64) (int, error)
}

type ResponseRepository interface {
	// ListByAssignment returns responses in question id order.
	ListByAssignment(ctx context.Context, assignmentID int64) ([]*Response, error)
	DeleteByAssignment(ctx context.Context, assignmentID int64) (int, error)
	CreateBatch(ctx context.Context, responses []*Response) error
}

// PatientDirectory answers whether a patient exists.
type PatientDirectory interface {
	Exists(ctx context.Context, patientID int64) (bool, error)
}

// Catalogue is the read side of the questionnaire catalogue.
type Catalogue interface {
	Exists(ctx context.Context, questionnaireID int64) (bool, error)
	Questions(ctx context.Context, questionnaireID int64) ([]*questionnaire.Question, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
