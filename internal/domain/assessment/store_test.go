package assessment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
)

// ── In-memory store ──

// memStore implements every repository the service needs. WithTx restores a
// snapshot when the callback fails, like a rolled back transaction.
type memStore struct {
	mu sync.Mutex

	patients       map[int64]bool
	questionnaires map[int64][]*questionnaire.Question
	assignments    map[int64]*Assignment
	responses      map[int64][]*Response

	nextAssignmentID int64
	nextResponseID   int64
	clock            time.Time

	failCreate        map[int64]error // by questionnaire id
	failDelete        map[int64]error // by assignment id
	completeOnDelete  map[int64]bool  // simulates a submit racing the delete
	failMarkCompleted error
	failCatalogue     error
}

func newMemStore() *memStore {
	return &memStore{
		patients:         map[int64]bool{},
		questionnaires:   map[int64][]*questionnaire.Question{},
		assignments:      map[int64]*Assignment{},
		responses:        map[int64][]*Response{},
		clock:            time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		failCreate:       map[int64]error{},
		failDelete:       map[int64]error{},
		completeOnDelete: map[int64]bool{},
	}
}

func copyAssignment(a *Assignment) *Assignment {
	cp := *a
	return &cp
}

// AssignmentRepository

func (m *memStore) ListByPatient(_ context.Context, patientID int64) ([]*Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Assignment
	for _, a := range m.assignments {
		if a.PatientID == patientID {
			out = append(out, copyAssignment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerThan(out[i], out[j]) })
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAssignment(a), nil
}

func (m *memStore) GetForUpdate(ctx context.Context, id int64) (*Assignment, error) {
	return m.GetByID(ctx, id)
}

func (m *memStore) Create(_ context.Context, a *Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failCreate[a.QuestionnaireID]; err != nil {
		return err
	}
	for _, existing := range m.assignments {
		if existing.PatientID == a.PatientID && existing.QuestionnaireID == a.QuestionnaireID && existing.Pending() {
			return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	m.nextAssignmentID++
	a.ID = m.nextAssignmentID
	a.AssignedAt = m.clock
	a.Completed = false
	m.clock = m.clock.Add(time.Minute)
	m.assignments[a.ID] = copyAssignment(a)
	return nil
}

func (m *memStore) DeletePending(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failDelete[id]; err != nil {
		return false, err
	}
	a, ok := m.assignments[id]
	if !ok {
		return false, nil
	}
	if m.completeOnDelete[id] {
		a.Completed = true
	}
	if a.Completed {
		return false, nil
	}
	delete(m.assignments, id)
	delete(m.responses, id)
	return true, nil
}

func (m *memStore) MarkCompleted(_ context.Context, id int64, totalScore int, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkCompleted != nil {
		return m.failMarkCompleted
	}
	a, ok := m.assignments[id]
	if !ok {
		return ErrNotFound
	}
	a.Completed = true
	a.TotalScore = &totalScore
	a.CompletedAt = &completedAt
	return nil
}

func (m *memStore) CountByQuestionnaire(_ context.Context, questionnaireID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.assignments {
		if a.QuestionnaireID == questionnaireID {
			n++
		}
	}
	return n, nil
}

// ResponseRepository

func (m *memStore) ListByAssignment(_ context.Context, assignmentID int64) ([]*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Response
	for _, r := range m.responses[assignmentID] {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memStore) DeleteByAssignment(_ context.Context, assignmentID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.responses[assignmentID])
	delete(m.responses, assignmentID)
	return n, nil
}

func (m *memStore) CreateBatch(_ context.Context, responses []*Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range responses {
		for _, existing := range m.responses[r.AssignmentID] {
			if existing.QuestionID == r.QuestionID {
				return &pgconn.PgError{Code: "23505"}
			}
		}
		m.nextResponseID++
		r.ID = m.nextResponseID
		cp := *r
		m.responses[r.AssignmentID] = append(m.responses[r.AssignmentID], &cp)
	}
	return nil
}

// PatientDirectory

type patientDir struct{ m *memStore }

func (p patientDir) Exists(_ context.Context, patientID int64) (bool, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	return p.m.patients[patientID], nil
}

// Catalogue

type catalogue struct{ m *memStore }

func (c catalogue) Exists(_ context.Context, questionnaireID int64) (bool, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.m.failCatalogue != nil {
		return false, c.m.failCatalogue
	}
	_, ok := c.m.questionnaires[questionnaireID]
	return ok, nil
}

func (c catalogue) Questions(_ context.Context, questionnaireID int64) ([]*questionnaire.Question, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.m.failCatalogue != nil {
		return nil, c.m.failCatalogue
	}
	qs, ok := c.m.questionnaires[questionnaireID]
	if !ok {
		return nil, questionnaire.ErrNotFound
	}
	return qs, nil
}

// Transactor

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	assignments := make(map[int64]*Assignment, len(m.assignments))
	for id, a := range m.assignments {
		assignments[id] = copyAssignment(a)
	}
	responses := make(map[int64][]*Response, len(m.responses))
	for id, rs := range m.responses {
		responses[id] = append([]*Response(nil), rs...)
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.assignments = assignments
		m.responses = responses
		m.mu.Unlock()
		return err
	}
	return nil
}

// ── Fixtures ──

var errStoreDown = errors.New("connection refused")

// threeOptions is the Never/Sometimes/Always scale scored 0..2.
var threeOptions = questionnaire.Options{{Text: "Never", Value: 0}, {Text: "Sometimes", Value: 1}, {Text: "Always", Value: 2}}

const (
	patientP  int64 = 1
	clinician int64 = 100
	qnPHQ     int64 = 10
	qnGAD     int64 = 20
)

func (m *memStore) addQuestionnaire(id int64, questions ...*questionnaire.Question) {
	for _, q := range questions {
		q.QuestionnaireID = id
	}
	m.questionnaires[id] = questions
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	m := newMemStore()
	m.patients[patientP] = true
	m.addQuestionnaire(qnPHQ,
		&questionnaire.Question{ID: 1, Text: "Little interest", Options: threeOptions},
		&questionnaire.Question{ID: 2, Text: "Feeling down", Options: threeOptions},
	)
	m.addQuestionnaire(qnGAD,
		&questionnaire.Question{ID: 3, Text: "Nervous", Options: threeOptions},
	)
	svc := NewService(m, m, patientDir{m}, catalogue{m}, m, zerolog.Nop())
	return svc, m
}

func pendingFor(t *testing.T, m *memStore, patientID, questionnaireID int64) []*Assignment {
	t.Helper()
	all, _ := m.ListByPatient(context.Background(), patientID)
	var out []*Assignment
	for _, a := range all {
		if a.QuestionnaireID == questionnaireID && a.Pending() {
			out = append(out, a)
		}
	}
	return out
}
