package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/DanielGlez0/SCEP/internal/platform/metrics"
)

// Service implements the assignment lifecycle: reconcile, history, submit
// and compare.
type Service struct {
	assignments AssignmentRepository
	responses   ResponseRepository
	patients    PatientDirectory
	catalogue   Catalogue
	tx          Transactor
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewService(
	assignments AssignmentRepository,
	responses ResponseRepository,
	patients PatientDirectory,
	catalogue Catalogue,
	tx Transactor,
	logger zerolog.Logger,
) *Service {
	return &Service{
		assignments: assignments,
		responses:   responses,
		patients:    patients,
		catalogue:   catalogue,
		tx:          tx,
		logger:      logger.With().Str("component", "assessment").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics attaches optional Prometheus collectors to the service.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Service) requirePatient(ctx context.Context, patientID int64) error {
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return storeErr("look up patient", err)
	}
	if !ok {
		return fmt.Errorf("patient %d: %w", patientID, ErrNotFound)
	}
	return nil
}

// ownedAssignment loads an assignment and hides it from other patients.
func (s *Service) ownedAssignment(ctx context.Context, patientID, assignmentID int64) (*Assignment, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("load assignment %d", assignmentID), err)
	}
	if a.PatientID != patientID {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, ErrNotFound)
	}
	return a, nil
}
