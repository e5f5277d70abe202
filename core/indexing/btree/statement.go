package btree

import (
	"fmt"
	"io"
)

type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

func (s StatementType) String() string {
	switch s {
	case StatementInsert:
		return "insert"
	case StatementSelect:
		return "select"
	default:
		return fmt.Sprintf("StatementType(%d)", int(s))
	}
}

// Statement is a prepared request against the table. Record is only used by
// inserts and holds an encoded row.
type Statement struct {
	Type   StatementType
	Key    uint32
	Record []byte
}

// Execute runs stmt. Rows produced by a select are written to w.
func (t *Table) Execute(stmt Statement, w io.Writer) error {
	switch stmt.Type {
	case StatementInsert:
		return t.Insert(stmt.Key, stmt.Record)
	case StatementSelect:
		return t.SelectAll(w)
	default:
		return fmt.Errorf("unknown statement type %s", stmt.Type)
	}
}
