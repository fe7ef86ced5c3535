package integration

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresImage = "postgres:16-alpine"

// startPostgresContainer runs a throwaway postgres through the Docker CLI on a
// random host port and returns its connection string and a cleanup function.
func startPostgresContainer(ctx context.Context) (string, func(), error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return "", nil, fmt.Errorf("docker not available: %w", err)
	}

	out, err := exec.CommandContext(ctx, "docker", "run", "--rm", "-d",
		"-p", "127.0.0.1::5432",
		"-e", "POSTGRES_USER=scep",
		"-e", "POSTGRES_PASSWORD=scep",
		"-e", "POSTGRES_DB=scep_test",
		postgresImage,
	).CombinedOutput()
	if err != nil {
		return "", nil, fmt.Errorf("docker run: %w\noutput: %s", err, out)
	}
	id := strings.TrimSpace(string(out))
	cleanup := func() { _ = exec.Command("docker", "stop", id).Run() }

	hostPort, err := mappedPort(ctx, id)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	dsn := fmt.Sprintf("postgres://scep:scep@%s/scep_test?sslmode=disable", hostPort)
	if err := waitForPostgres(ctx, dsn, 30*time.Second); err != nil {
		cleanup()
		return "", nil, err
	}
	return dsn, cleanup, nil
}

// mappedPort asks docker which host address 5432 was published on.
func mappedPort(ctx context.Context, id string) (string, error) {
	out, err := exec.CommandContext(ctx, "docker", "port", id, "5432/tcp").Output()
	if err != nil {
		return "", fmt.Errorf("docker port: %w", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if line == "" {
		return "", fmt.Errorf("docker port: no mapping for container %s", id)
	}
	return line, nil
}

func waitForPostgres(ctx context.Context, dsn string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		pool, err := pgxpool.New(ctx, dsn)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres not ready after %v: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}
