package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
	"github.com/DanielGlez0/SCEP/internal/platform/db"
)

var (
	ErrNotFound                = errors.New("assessment: not found")
	ErrIncompleteSubmission    = errors.New("assessment: incomplete submission")
	ErrIncomparableAssignments = errors.New("assessment: assignments are not comparable")
	ErrPersistenceFailure      = errors.New("assessment: persistence failure")
	ErrInvariantViolation      = errors.New("assessment: invariant violation")
	ErrInvalidAnswer           = errors.New("assessment: invalid answer")
)

// IncompleteSubmissionError lists the questions left unanswered, in
// ascending id order.
type IncompleteSubmissionError struct {
	Missing []int64
}

func (e *IncompleteSubmissionError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%v: missing answers for questions %s", ErrIncompleteSubmission, strings.Join(ids, ", "))
}

func (e *IncompleteSubmissionError) Unwrap() error { return ErrIncompleteSubmission }

const (
	OpCreate = "create"
	OpDelete = "delete"
)

// ReconcileFailure is one write of a reconcile call that did not apply.
type ReconcileFailure struct {
	Op              string `json:"op"`
	QuestionnaireID int64  `json:"questionnaire_id"`
	AssignmentID    int64  `json:"assignment_id,omitempty"`
	Err             error  `json:"-"`
}

// ReconcileError reports a partially applied reconcile. Writes in Result were
// applied and are not rolled back.
type ReconcileError struct {
	Result   ReconcileResult
	Failures []ReconcileFailure
}

func (e *ReconcileError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s questionnaire %d: %v", f.Op, f.QuestionnaireID, f.Err)
	}
	return fmt.Sprintf("reconcile partially applied (%d created, %d deleted, %d failed): %s",
		len(e.Result.Created), len(e.Result.Deleted), len(e.Failures), strings.Join(parts, "; "))
}

func (e *ReconcileError) Unwrap() []error {
	errs := []error{ErrPersistenceFailure}
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// storeErr translates a repository or catalogue error into the taxonomy.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvariantViolation), errors.Is(err, ErrPersistenceFailure):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, questionnaire.ErrNotFound), db.IsNoRows(err):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrInvariantViolation, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrPersistenceFailure, err)
	}
}
