package assessment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DanielGlez0/SCEP/internal/platform/db"
)

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

const assignmentCols = `id, patient_id, questionnaire_id, assigned_by, assigned_at,
	completed, total_score, completed_at`

func (r *assignmentRepoPG) scan(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.PatientID, &a.QuestionnaireID, &a.AssignedBy, &a.AssignedAt,
		&a.Completed, &a.TotalScore, &a.CompletedAt)
	return &a, err
}

func (r *assignmentRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Assignment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+assignmentCols+` FROM assignment
		WHERE patient_id = $1 ORDER BY assigned_at DESC, id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *assignmentRepoPG) GetByID(ctx context.Context, id int64) (*Assignment, error) {
	return r.scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+assignmentCols+` FROM assignment WHERE id = $1`, id))
}

func (r *assignmentRepoPG) GetForUpdate(ctx context.Context, id int64) (*Assignment, error) {
	return r.scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+assignmentCols+` FROM assignment WHERE id = $1 FOR UPDATE`, id))
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO assignment (patient_id, questionnaire_id, assigned_by)
		VALUES ($1, $2, $3)
		RETURNING id, assigned_at, completed`,
		a.PatientID, a.QuestionnaireID, a.AssignedBy).Scan(&a.ID, &a.AssignedAt, &a.Completed)
}

func (r *assignmentRepoPG) DeletePending(ctx context.Context, id int64) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM assignment WHERE id = $1 AND NOT completed`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *assignmentRepoPG) MarkCompleted(ctx context.Context, id int64, totalScore int, completedAt time.Time) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE assignment SET completed = TRUE, total_score = $2, completed_at = $3
		WHERE id = $1`,
		id, totalScore, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepoPG) CountByQuestionnaire(ctx context.Context, questionnaireID int64) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM assignment WHERE questionnaire_id = $1`, questionnaireID).Scan(&n)
	return n, err
}

// =========== Response Repository ===========

type responseRepoPG struct{ pool *pgxpool.Pool }

func NewResponseRepoPG(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepoPG{pool: pool}
}

func (r *responseRepoPG) ListByAssignment(ctx context.Context, assignmentID int64) ([]*Response, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, assignment_id, question_id, answer_text, answer_value
		FROM response WHERE assignment_id = $1 ORDER BY question_id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Response
	for rows.Next() {
		var resp Response
		if err := rows.Scan(&resp.ID, &resp.AssignmentID, &resp.QuestionID, &resp.AnswerText, &resp.AnswerValue); err != nil {
			return nil, err
		}
		items = append(items, &resp)
	}
	return items, rows.Err()
}

func (r *responseRepoPG) DeleteByAssignment(ctx context.Context, assignmentID int64) (int, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM response WHERE assignment_id = $1`, assignmentID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *responseRepoPG) CreateBatch(ctx context.Context, responses []*Response) error {
	if len(responses) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, resp := range responses {
		b.Queue(`INSERT INTO response (assignment_id, question_id, answer_text, answer_value)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			resp.AssignmentID, resp.QuestionID, resp.AnswerText, resp.AnswerValue)
	}
	br := db.Conn(ctx, r.pool).SendBatch(ctx, b)
	for _, resp := range responses {
		if err := br.QueryRow().Scan(&resp.ID); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

// =========== Patient Directory ===========

type patientDirectoryPG struct{ pool *pgxpool.Pool }

func NewPatientDirectoryPG(pool *pgxpool.Pool) PatientDirectory {
	return &patientDirectoryPG{pool: pool}
}

func (r *patientDirectoryPG) Exists(ctx context.Context, patientID int64) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, patientID).Scan(&ok)
	return ok, err
}
