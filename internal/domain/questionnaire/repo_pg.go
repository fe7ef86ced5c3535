package questionnaire

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DanielGlez0/SCEP/internal/platform/db"
)

// =========== Questionnaire Repository ===========

type questionnaireRepoPG struct{ pool *pgxpool.Pool }

func NewQuestionnaireRepoPG(pool *pgxpool.Pool) QuestionnaireRepository {
	return &questionnaireRepoPG{pool: pool}
}

const qnCols = `id, title, description, created_at, updated_at`

func (r *questionnaireRepoPG) scan(row pgx.Row) (*Questionnaire, error) {
	var q Questionnaire
	if err := row.Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *questionnaireRepoPG) Create(ctx context.Context, q *Questionnaire) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO questionnaire (title, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		q.Title, q.Description).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

func (r *questionnaireRepoPG) GetByID(ctx context.Context, id int64) (*Questionnaire, error) {
	return r.scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+qnCols+` FROM questionnaire WHERE id = $1`, id))
}

func (r *questionnaireRepoPG) Update(ctx context.Context, q *Questionnaire) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE questionnaire SET title = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		q.ID, q.Title, q.Description).Scan(&q.CreatedAt, &q.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func (r *questionnaireRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM questionnaire WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *questionnaireRepoPG) List(ctx context.Context, limit, offset int) ([]*Questionnaire, int, error) {
	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM questionnaire`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn.Query(ctx, `SELECT `+qnCols+` FROM questionnaire ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Questionnaire
	for rows.Next() {
		q, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, q)
	}
	return items, total, rows.Err()
}

// =========== Question Repository ===========

type questionRepoPG struct{ pool *pgxpool.Pool }

func NewQuestionRepoPG(pool *pgxpool.Pool) QuestionRepository {
	return &questionRepoPG{pool: pool}
}

const questionCols = `id, questionnaire_id, text, options, created_at`

func (r *questionRepoPG) scan(row pgx.Row) (*Question, error) {
	var q Question
	var raw []byte
	if err := row.Scan(&q.ID, &q.QuestionnaireID, &q.Text, &raw, &q.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	opts, err := ParseOptions(raw)
	if err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}
	q.Options = opts
	return &q, nil
}

func encodeOptions(o Options) (string, error) {
	if o == nil {
		o = Options{}
	}
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *questionRepoPG) Create(ctx context.Context, q *Question) error {
	opts, err := encodeOptions(q.Options)
	if err != nil {
		return err
	}
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO question (questionnaire_id, text, options)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, created_at`,
		q.QuestionnaireID, q.Text, opts).Scan(&q.ID, &q.CreatedAt)
}

func (r *questionRepoPG) GetByID(ctx context.Context, id int64) (*Question, error) {
	return r.scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+questionCols+` FROM question WHERE id = $1`, id))
}

func (r *questionRepoPG) Update(ctx context.Context, q *Question) error {
	opts, err := encodeOptions(q.Options)
	if err != nil {
		return err
	}
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE question SET text = $2, options = $3::jsonb
		WHERE id = $1`,
		q.ID, q.Text, opts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *questionRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM question WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *questionRepoPG) ListByQuestionnaire(ctx context.Context, questionnaireID int64) ([]*Question, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+questionCols+` FROM question WHERE questionnaire_id = $1 ORDER BY id`, questionnaireID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Question
	for rows.Next() {
		q, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, rows.Err()
}
