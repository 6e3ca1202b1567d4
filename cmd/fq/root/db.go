package root

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focusquest/internal/auth"
	"focusquest/internal/config"
	"focusquest/internal/engine"
	"focusquest/internal/lock"
	"focusquest/internal/storage"
)

func resolveDSN(cfg config.Config) (string, error) {
	if dbFlag != "" {
		return dbFlag, nil
	}
	if cfg.DBDSN != "" {
		return cfg.DBDSN, nil
	}
	if cfg.DBDriver == storage.DriverPostgres {
		return "", fmt.Errorf("FOCUSQUEST_DB_DSN is required for driver %q", cfg.DBDriver)
	}
	return storage.DefaultDBPath()
}

// openService wires config, store, locker and logger into a Service. The
// returned context carries the acting user when one is configured.
func openService(cmd *cobra.Command) (context.Context, *engine.Service, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cfg.Logger(cmd.ErrOrStderr())
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}
	balance, err := cfg.Balance()
	if err != nil {
		return nil, nil, nil, err
	}

	dsn, err := resolveDSN(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := storage.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.RedisAddr != "" {
		client := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		locker = lock.NewRedisLocker(client, cfg.LockTTL, lock.WithLogger(logger))
		cleanup = func() {
			_ = client.Close()
			_ = db.Close()
		}
	}

	svc := engine.NewService(db,
		engine.WithLocker(locker),
		engine.WithLogger(logger),
		engine.WithLocation(loc),
		engine.WithBalance(balance),
	)

	user := strings.TrimSpace(userFlag)
	if user == "" {
		user = cfg.User
	}
	if user != "" {
		ctx = auth.WithUser(ctx, user)
	}
	return ctx, svc, cleanup, nil
}

// resolveTaskID accepts a full task id or a unique prefix of an active one.
func resolveTaskID(ctx context.Context, svc *engine.Service, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	t, err := svc.GetTask(ctx, arg)
	if err == nil {
		return t.ID, nil
	}
	if !errors.Is(err, engine.ErrTaskNotFound) {
		return "", err
	}
	tasks, err := svc.ListTasks(ctx, true)
	if err != nil {
		return "", err
	}
	var matches []storage.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, arg) && t.Active {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0].ID, nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d tasks", arg, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
