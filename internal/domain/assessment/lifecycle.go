package assessment

import (
	"context"
	"fmt"
	"sort"
)

// Reconcile makes the patient's pending assignments match desired. Missing
// questionnaires get a new pending assignment, which for questionnaires that
// were already completed is a reassignment. Pending assignments outside
// desired are deleted. Completed assignments are never touched.
//
// Writes are applied one by one. When some fail, the returned result holds
// the writes that did apply and the error is a *ReconcileError.
func (s *Service) Reconcile(ctx context.Context, patientID int64, desired []int64, actorClinicianID int64) (*ReconcileResult, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}

	want := uniqueSorted(desired)
	for _, qid := range want {
		ok, err := s.catalogue.Exists(ctx, qid)
		if err != nil {
			return nil, storeErr("look up questionnaire", err)
		}
		if !ok {
			return nil, fmt.Errorf("questionnaire %d: %w", qid, ErrNotFound)
		}
	}

	existing, err := s.assignments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, storeErr("list assignments", err)
	}
	pending, err := pendingByQuestionnaire(existing)
	if err != nil {
		return nil, err
	}

	toCreate, toDelete := plan(want, pending)
	result := &ReconcileResult{Created: []*Assignment{}, Deleted: []*Assignment{}}
	var failures []ReconcileFailure

	for _, qid := range toCreate {
		a := &Assignment{PatientID: patientID, QuestionnaireID: qid, AssignedBy: actorClinicianID}
		if err := s.assignments.Create(ctx, a); err != nil {
			failures = append(failures, ReconcileFailure{
				Op:              OpCreate,
				QuestionnaireID: qid,
				Err:             storeErr("create assignment", err),
			})
			continue
		}
		result.Created = append(result.Created, a)
	}

	for _, a := range toDelete {
		removed, err := s.assignments.DeletePending(ctx, a.ID)
		if err == nil && !removed {
			err = fmt.Errorf("assignment %d is no longer pending: %w", a.ID, ErrPersistenceFailure)
		}
		if err != nil {
			failures = append(failures, ReconcileFailure{
				Op:              OpDelete,
				QuestionnaireID: a.QuestionnaireID,
				AssignmentID:    a.ID,
				Err:             storeErr("delete assignment", err),
			})
			continue
		}
		result.Deleted = append(result.Deleted, a)
	}

	s.metrics.Reconciled(len(result.Created), len(result.Deleted), len(failures))

	if len(toCreate)+len(toDelete) > 0 {
		if err := s.verifyPendingUnique(ctx, patientID); err != nil {
			s.logger.Error().Err(err).Int64("patient_id", patientID).Msg("reconcile left duplicate pending assignments")
			return result, err
		}
	}

	if len(failures) > 0 {
		rerr := &ReconcileError{Result: *result, Failures: failures}
		s.logger.Warn().Err(rerr).
			Int64("patient_id", patientID).
			Int("created", len(result.Created)).
			Int("deleted", len(result.Deleted)).
			Int("failed", len(failures)).
			Msg("reconcile partially applied")
		return result, rerr
	}

	s.logger.Info().
		Int64("patient_id", patientID).
		Int64("actor_id", actorClinicianID).
		Int("created", len(result.Created)).
		Int("deleted", len(result.Deleted)).
		Msg("assignments reconciled")
	return result, nil
}

// plan returns the questionnaires to create in ascending order and the
// pending assignments to delete in ascending questionnaire order.
func plan(want []int64, pending map[int64]*Assignment) ([]int64, []*Assignment) {
	wanted := make(map[int64]bool, len(want))
	var toCreate []int64
	for _, qid := range want {
		wanted[qid] = true
		if _, ok := pending[qid]; !ok {
			toCreate = append(toCreate, qid)
		}
	}

	var toDelete []*Assignment
	for qid, a := range pending {
		if !wanted[qid] {
			toDelete = append(toDelete, a)
		}
	}
	sort.Slice(toDelete, func(i, j int) bool {
		return toDelete[i].QuestionnaireID < toDelete[j].QuestionnaireID
	})
	return toCreate, toDelete
}

func pendingByQuestionnaire(assignments []*Assignment) (map[int64]*Assignment, error) {
	pending := make(map[int64]*Assignment)
	for _, a := range assignments {
		if !a.Pending() {
			continue
		}
		if prev, dup := pending[a.QuestionnaireID]; dup {
			return nil, fmt.Errorf("questionnaire %d has pending assignments %d and %d: %w",
				a.QuestionnaireID, prev.ID, a.ID, ErrInvariantViolation)
		}
		pending[a.QuestionnaireID] = a
	}
	return pending, nil
}

func (s *Service) verifyPendingUnique(ctx context.Context, patientID int64) error {
	after, err := s.assignments.ListByPatient(ctx, patientID)
	if err != nil {
		return storeErr("re-list assignments", err)
	}
	_, err = pendingByQuestionnaire(after)
	return err
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
