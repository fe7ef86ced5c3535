package assessment

import (
	"time"

	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
)

// Assignment is one attempt at a questionnaire given to a patient.
// TotalScore and CompletedAt are nil until the first submission.
type Assignment struct {
	ID              int64      `json:"id"`
	PatientID       int64      `json:"patient_id"`
	QuestionnaireID int64      `json:"questionnaire_id"`
	AssignedBy      int64      `json:"assigned_by"`
	AssignedAt      time.Time  `json:"assigned_at"`
	Completed       bool       `json:"completed"`
	TotalScore      *int       `json:"total_score"`
	CompletedAt     *time.Time `json:"completed_at"`
}

func (a *Assignment) Pending() bool {
	return !a.Completed
}

type Response struct {
	ID           int64  `json:"id"`
	AssignmentID int64  `json:"assignment_id"`
	QuestionID   int64  `json:"question_id"`
	AnswerText   string `json:"answer_text"`
	AnswerValue  int    `json:"answer_value"`
}

// Choice identifies the chosen option of a question by position, option
// text or option value. When several are set the first of index, text,
// value wins.
type Choice struct {
	Index *int    `json:"index,omitempty"`
	Text  *string `json:"text,omitempty"`
	Value *int    `json:"value,omitempty"`
}

func ChooseIndex(i int) Choice { return Choice{Index: &i} }
func ChooseText(s string) Choice { return Choice{Text: &s} }
func ChooseValue(v int) Choice { return Choice{Value: &v} }

// ResolvedAnswer is a Choice matched against the question's options.
type ResolvedAnswer struct {
	QuestionID int64
	Text       string
	Value      int
}

// HistoryEntry groups the attempts of one questionnaire for a patient.
// History is newest first.
type HistoryEntry struct {
	QuestionnaireID int64         `json:"questionnaire_id"`
	Current         *Assignment   `json:"current"`
	History         []*Assignment `json:"history"`
}

// CompletedAttempts returns the completed subset of History, newest first.
func (h *HistoryEntry) CompletedAttempts() []*Assignment {
	out := make([]*Assignment, 0, len(h.History))
	for _, a := range h.History {
		if a.Completed {
			out = append(out, a)
		}
	}
	return out
}

type ReconcileResult struct {
	Created []*Assignment `json:"created"`
	Deleted []*Assignment `json:"deleted"`
}

type SubmitResult struct {
	AssignmentID int64     `json:"assignment_id"`
	TotalScore   int       `json:"total_score"`
	CompletedAt  time.Time `json:"completed_at"`
	Resubmission bool      `json:"resubmission"`
}

// QuestionDelta is one row of a comparison. The B side and Delta are nil when
// attempt B has no response for the question.
type QuestionDelta struct {
	QuestionID int64   `json:"question_id"`
	Text       string  `json:"text"`
	ValueA     int     `json:"value_a"`
	TextA      string  `json:"text_a"`
	ValueB     *int    `json:"value_b"`
	TextB      *string `json:"text_b"`
	Delta      *int    `json:"delta"`
	MissingInB bool    `json:"missing_in_b"`
}

type Comparison struct {
	AssignmentA     int64           `json:"assignment_a"`
	AssignmentB     int64           `json:"assignment_b"`
	QuestionnaireID int64           `json:"questionnaire_id"`
	PerQuestion     []QuestionDelta `json:"per_question"`
	TotalDelta      int             `json:"total_delta"`
}

// AnsweredQuestion is a stored response joined with its question.
type AnsweredQuestion struct {
	QuestionID   int64                 `json:"question_id"`
	QuestionText string                `json:"question_text"`
	Options      questionnaire.Options `json:"options"`
	AnswerText   string                `json:"answer_text"`
	AnswerValue  int                   `json:"answer_value"`
}

type AssignmentDetail struct {
	Assignment *Assignment        `json:"assignment"`
	Responses  []AnsweredQuestion `json:"responses"`
}
