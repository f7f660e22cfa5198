package store

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/toumakido/my-claude/todod/internal/model"
)

// Seed writes todo into s. It is best effort: a failure is logged and
// reported as false, never returned.
func Seed(ctx context.Context, s Store, todo model.Todo, log *slog.Logger) bool {
	if err := s.Put(ctx, strconv.Itoa(todo.ID), todo); err != nil {
		log.Warn("seed failed", "id", todo.ID, "error", err)
		return false
	}
	log.Debug("seeded", "id", todo.ID)
	return true
}
