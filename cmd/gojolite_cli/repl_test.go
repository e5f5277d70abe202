package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/require"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/sushant-115/gojolite/core/indexing/btree"
	pagemanager "github.com/sushant-115/gojolite/core/write_engine/page_manager"
)

// scriptReader replays lines, then reports end of input.
type scriptReader struct {
	lines []string
	errs  map[int]error
	pos   int
}

func (s *scriptReader) Readline() (string, error) {
	if err, ok := s.errs[s.pos]; ok {
		s.pos++
		return "", err
	}
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return line, nil
}

// runScript opens the table at path, feeds it lines and returns the output.
func runScript(t *testing.T, path string, lines ...string) string {
	t.Helper()
	return runReader(t, path, &scriptReader{lines: lines})
}

func runReader(t *testing.T, path string, in lineReader) string {
	t.Helper()
	logger := zaptest.NewLogger(t)
	table, err := btree.Open(path, btree.WithLogger(logger))
	require.NoError(t, err)

	var out strings.Builder
	r := &repl{table: table, out: &out, logger: logger, tracer: nooptrace.NewTracerProvider().Tracer("")}
	require.NoError(t, r.run(context.Background(), in))
	return out.String()
}

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cli.db")
}

func TestREPL_InsertAndSelect(t *testing.T) {
	out := runScript(t, testDBPath(t),
		"insert 1 user1 person1@example.com",
		"select",
		".exit",
	)
	require.Equal(t, "Executed.\nRow<id:1, username:user1, email:person1@example.com>\nExecuted.\n", out)
}

func TestREPL_ErrorMessages(t *testing.T) {
	out := runScript(t, testDBPath(t),
		"insert 5 a b",
		"insert 5 a b",
		"insert 6 "+strings.Repeat("a", 33)+" b",
		"insert x a b",
		"delete 5",
		".tables",
		"select",
	)
	require.Equal(t, strings.Join([]string{
		"Executed.",
		"Error: Duplicate key.",
		"String is too long.",
		"Syntax error. Could not parse statement.",
		"Unrecognized keyword at start of 'delete 5'.",
		"Unrecognized command '.tables'",
		"Row<id:5, username:a, email:b>",
		"Executed.",
	}, "\n")+"\n", out)
}

func TestREPL_PersistsAcrossSessions(t *testing.T) {
	path := testDBPath(t)
	var lines []string
	for i := 1; i <= 30; i++ {
		lines = append(lines, fmt.Sprintf("insert %d user%d person%d@example.com", i, i, i))
	}
	runScript(t, path, append(lines, ".exit")...)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size()%pagemanager.PageSize)

	out := runScript(t, path, "select")
	rows := strings.Split(strings.TrimSuffix(out, "Executed.\n"), "\n")
	require.Len(t, rows, 31) // trailing empty element after the last newline
	require.Equal(t, "Row<id:1, username:user1, email:person1@example.com>", rows[0])
	require.Equal(t, "Row<id:30, username:user30, email:person30@example.com>", rows[29])
}

func TestREPL_MetaCommands(t *testing.T) {
	out := runScript(t, testDBPath(t),
		"insert 3 c c",
		"insert 1 a a",
		"insert 2 b b",
		".btree",
		".constants",
	)

	var constants strings.Builder
	require.NoError(t, pagemanager.PrintConstants(&constants))
	require.Equal(t, "Executed.\nExecuted.\nExecuted.\n"+
		"Tree:\n- leaf (size 3)\n  - 1\n  - 2\n  - 3\n"+
		constants.String(), out)
}

func TestREPL_InterruptIsIgnored(t *testing.T) {
	in := &scriptReader{
		lines: []string{"", "insert 1 a b", "", "select"},
		errs:  map[int]error{0: readline.ErrInterrupt},
	}
	out := runReader(t, testDBPath(t), in)
	require.Equal(t, "Executed.\nRow<id:1, username:a, email:b>\nExecuted.\n", out)
}
