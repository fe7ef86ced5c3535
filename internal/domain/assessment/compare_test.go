package assessment

import (
	"context"
	"errors"
	"testing"
)

// twoAttempts completes PHQ twice: A answers (1, 2), B answers (2, 0).
func twoAttempts(t *testing.T, svc *Service) (int64, int64) {
	t.Helper()
	a := assignPHQ(t, svc)
	complete(t, svc, a, 1, 2)
	b := assignPHQ(t, svc)
	complete(t, svc, b, 2, 0)
	return a, b
}

func TestCompare_MixedDeltas(t *testing.T) {
	svc, _ := newTestService(t)
	a, b := twoAttempts(t, svc)

	cmp, err := svc.Compare(context.Background(), patientP, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmp.PerQuestion) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(cmp.PerQuestion))
	}
	r1, r2 := cmp.PerQuestion[0], cmp.PerQuestion[1]
	if r1.QuestionID != 1 || *r1.Delta != 1 || r1.Text != "Little interest" {
		t.Errorf("unexpected first row: %+v", r1)
	}
	if r2.QuestionID != 2 || *r2.Delta != -2 || *r2.TextB != "Never" || r2.TextA != "Always" {
		t.Errorf("unexpected second row: %+v", r2)
	}
	if cmp.TotalDelta != *r1.Delta+*r2.Delta || cmp.TotalDelta != -1 {
		t.Errorf("expected total delta -1, got %d", cmp.TotalDelta)
	}
}

func TestCompare_Symmetric(t *testing.T) {
	svc, _ := newTestService(t)
	a, b := twoAttempts(t, svc)

	ab, err := svc.Compare(context.Background(), patientP, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := svc.Compare(context.Background(), patientP, b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ab.TotalDelta != -ba.TotalDelta {
		t.Errorf("TotalDelta not antisymmetric: %d vs %d", ab.TotalDelta, ba.TotalDelta)
	}
}

func TestCompare_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	a, b := twoAttempts(t, svc)

	first, _ := svc.Compare(context.Background(), patientP, a, b)
	second, _ := svc.Compare(context.Background(), patientP, a, b)
	for i := range first.PerQuestion {
		if *first.PerQuestion[i].Delta != *second.PerQuestion[i].Delta {
			t.Fatalf("row %d differs between runs", i)
		}
	}
}

func TestCompare_Incomparable(t *testing.T) {
	svc, _ := newTestService(t)
	a, _ := twoAttempts(t, svc)
	pending := assignPHQ(t, svc)
	gad := reconcile(t, svc, qnPHQ, qnGAD).Created[0].ID
	if _, err := svc.Submit(context.Background(), patientP, gad, map[int64]Choice{3: ChooseIndex(1)}); err != nil {
		t.Fatalf("submit gad: %v", err)
	}

	if _, err := svc.Compare(context.Background(), patientP, a, pending); !errors.Is(err, ErrIncomparableAssignments) {
		t.Errorf("pending B: expected ErrIncomparableAssignments, got %v", err)
	}
	if _, err := svc.Compare(context.Background(), patientP, a, gad); !errors.Is(err, ErrIncomparableAssignments) {
		t.Errorf("other questionnaire: expected ErrIncomparableAssignments, got %v", err)
	}
}

func TestCompare_NotOwned(t *testing.T) {
	svc, m := newTestService(t)
	a, b := twoAttempts(t, svc)
	m.patients[2] = true

	if _, err := svc.Compare(context.Background(), 2, a, b); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildComparison_MissingInB(t *testing.T) {
	a := &Assignment{ID: 1, QuestionnaireID: qnPHQ, Completed: true, TotalScore: intPtr(4)}
	b := &Assignment{ID: 2, QuestionnaireID: qnPHQ, Completed: true, TotalScore: intPtr(1)}
	respA := []*Response{
		{QuestionID: 2, AnswerText: "Always", AnswerValue: 2},
		{QuestionID: 1, AnswerText: "Always", AnswerValue: 2},
	}
	respB := []*Response{{QuestionID: 1, AnswerText: "Sometimes", AnswerValue: 1}}

	cmp := BuildComparison(a, b, respA, respB, map[int64]string{1: "Little interest"})
	if len(cmp.PerQuestion) != 2 || cmp.PerQuestion[0].QuestionID != 1 {
		t.Fatalf("expected rows ordered by question id, got %+v", cmp.PerQuestion)
	}
	missing := cmp.PerQuestion[1]
	if !missing.MissingInB || missing.ValueB != nil || missing.TextB != nil || missing.Delta != nil {
		t.Errorf("expected row 2 flagged missing in B, got %+v", missing)
	}
	if missing.Text != "" {
		t.Errorf("expected empty text for unknown question, got %q", missing.Text)
	}
	if *cmp.PerQuestion[0].Delta != -1 {
		t.Errorf("expected delta -1, got %d", *cmp.PerQuestion[0].Delta)
	}
	if cmp.TotalDelta != -3 {
		t.Errorf("expected total delta -3, got %d", cmp.TotalDelta)
	}
}
