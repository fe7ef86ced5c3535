package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/DanielGlez0/SCEP/internal/domain/assessment"
	"github.com/DanielGlez0/SCEP/internal/domain/questionnaire"
	"github.com/DanielGlez0/SCEP/internal/platform/db"
)

// connStr is empty when no database could be reached; tests skip then.
var connStr string

func TestMain(m *testing.M) {
	ctx := context.Background()

	cleanup := func() {}
	connStr = os.Getenv("TEST_DATABASE_URL")
	if connStr == "" && os.Getenv("INTEGRATION_DOCKER") != "" {
		var err error
		connStr, cleanup, err = startPostgresContainer(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanup()
	os.Exit(code)
}

// findMigrationsDir locates the migrations directory relative to this file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// env is one isolated schema with the full service graph wired over it.
type env struct {
	pool        *pgxpool.Pool
	catalogue   *questionnaire.Service
	assessments *assessment.Service
}

// newEnv creates a throwaway schema, migrates it and wires the services.
func newEnv(t *testing.T) *env {
	t.Helper()
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	admin, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect to schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if _, err := admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	if _, err := db.NewMigrator(pool, findMigrationsDir()).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	assignments := assessment.NewAssignmentRepoPG(pool)
	catalogue := questionnaire.NewService(
		questionnaire.NewQuestionnaireRepoPG(pool),
		questionnaire.NewQuestionRepoPG(pool),
		assignments,
	)
	svc := assessment.NewService(
		assignments,
		assessment.NewResponseRepoPG(pool),
		assessment.NewPatientDirectoryPG(pool),
		catalogue,
		db.NewTransactor(pool),
		zerolog.Nop(),
	)

	return &env{pool: pool, catalogue: catalogue, assessments: svc}
}

func (e *env) createPatient(t *testing.T, name string) int64 {
	t.Helper()
	var id int64
	err := e.pool.QueryRow(context.Background(),
		`INSERT INTO patient (full_name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return id
}

// createQuestionnaire adds a questionnaire with n questions scored 0..3.
func (e *env) createQuestionnaire(t *testing.T, title string, n int) (int64, []int64) {
	t.Helper()
	ctx := context.Background()

	qn := &questionnaire.Questionnaire{Title: title}
	if err := e.catalogue.CreateQuestionnaire(ctx, qn); err != nil {
		t.Fatalf("create questionnaire: %v", err)
	}

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		q := &questionnaire.Question{
			QuestionnaireID: qn.ID,
			Text:            fmt.Sprintf("%s item %d", title, i+1),
			Options: questionnaire.Options{
				{Text: "Never", Value: 0},
				{Text: "Sometimes", Value: 1},
				{Text: "Often", Value: 2},
				{Text: "Always", Value: 3},
			},
		}
		if err := e.catalogue.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("create question: %v", err)
		}
		ids = append(ids, q.ID)
	}
	return qn.ID, ids
}
