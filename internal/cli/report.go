package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/information-sharing-networks/dcs-checker/internal/logger"
)

// errCheckFailed is returned by a command whose check failed; the diagnostics have already been printed.
var errCheckFailed = errors.New("check failed")

// check is one run of a check command.
type check struct {
	id     uuid.UUID
	name   string
	out    io.Writer
	logger *slog.Logger
}

func (o *rootOptions) newCheck(out io.Writer, name string) *check {
	id := uuid.New()
	return &check{
		id:     id,
		name:   name,
		out:    out,
		logger: o.logger.With(slog.String("check_id", id.String()), slog.String("check", name)),
	}
}

// context returns ctx carrying the check's logger.
func (c *check) context(ctx context.Context) context.Context {
	return logger.ContextWithLogger(ctx, c.logger)
}

// report prints the progress messages and, on failure, the diagnostic.
// It returns errCheckFailed when err is not nil.
func (c *check) report(messages []string, err error) error {
	for _, msg := range messages {
		fmt.Fprintln(c.out, msg)
	}

	if err != nil {
		fmt.Fprintln(c.out, err)
		c.logger.Info("check failed", slog.String("error", err.Error()))
		return errCheckFailed
	}

	c.logger.Info("check passed")
	return nil
}
