package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sushant-115/gojolite/core/indexing/btree"
	flushmanager "github.com/sushant-115/gojolite/core/write_engine/flush_manager"
	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
	"github.com/sushant-115/gojolite/core/write_engine/record"
)

const prompt = "db > "

// lineReader is the part of *readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
}

type repl struct {
	table  *btree.Table
	out    io.Writer
	logger *zap.Logger
	tracer trace.Tracer
}

// run reads lines until .exit or end of input, then closes the table.
func (r *repl) run(ctx context.Context, in lineReader) error {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return r.close()
		}
		if err != nil {
			_ = r.close()
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if line == ".exit" {
				return r.close()
			}
			r.doMetaCommand(line)
			continue
		}
		r.doStatement(ctx, line)
	}
}

func (r *repl) close() error {
	if err := r.table.Close(); err != nil {
		r.logger.Error("Failed to close table", zap.Error(err))
		return err
	}
	return nil
}

func (r *repl) doMetaCommand(line string) {
	var err error
	switch line {
	case ".btree":
		err = r.table.PrintTree(r.out)
	case ".constants":
		err = pagemanager.PrintConstants(r.out)
	default:
		fmt.Fprintf(r.out, "Unrecognized command '%s'\n", line)
		return
	}
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v.\n", err)
	}
}

func (r *repl) doStatement(ctx context.Context, line string) {
	stmt, err := prepareStatement(line)
	switch {
	case errors.Is(err, record.ErrValueTooLong):
		fmt.Fprintln(r.out, "String is too long.")
		return
	case errors.Is(err, errUnrecognizedStatement):
		fmt.Fprintf(r.out, "Unrecognized keyword at start of '%s'.\n", line)
		return
	case err != nil:
		fmt.Fprintln(r.out, "Syntax error. Could not parse statement.")
		return
	}

	_, span := r.tracer.Start(ctx, "gojolite.execute", trace.WithAttributes(
		attribute.String("statement", stmt.Type.String()),
	))
	defer span.End()

	err = r.table.Execute(stmt, r.out)
	switch {
	case err == nil:
		fmt.Fprintln(r.out, "Executed.")
	case errors.Is(err, flushmanager.ErrDuplicateKey):
		span.SetStatus(codes.Error, "duplicate key")
		fmt.Fprintln(r.out, "Error: Duplicate key.")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("Statement failed", zap.String("statement", stmt.Type.String()), zap.Uint32("key", stmt.Key), zap.Error(err))
		fmt.Fprintf(r.out, "Error: %v.\n", err)
	}
}
