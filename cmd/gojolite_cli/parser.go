package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sushant-115/gojolite/core/indexing/btree"
	"github.com/sushant-115/gojolite/core/write_engine/record"
)

var (
	errUnrecognizedStatement = errors.New("unrecognized statement")
	errSyntax                = errors.New("syntax error")
)

// prepareStatement turns one input line into a statement. Insert values are
// validated and encoded here so a rejected line never reaches the table.
func prepareStatement(line string) (btree.Statement, error) {
	fields, err := splitFields(line)
	if err != nil {
		return btree.Statement{}, err
	}
	if len(fields) == 0 {
		return btree.Statement{}, errUnrecognizedStatement
	}

	switch strings.ToLower(fields[0]) {
	case "insert":
		if len(fields) != 4 {
			return btree.Statement{}, errSyntax
		}
		id, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return btree.Statement{}, errSyntax
		}
		rec, err := record.Encode(uint32(id), fields[2], fields[3])
		if err != nil {
			return btree.Statement{}, err
		}
		return btree.Statement{Type: btree.StatementInsert, Key: uint32(id), Record: rec}, nil
	case "select":
		if len(fields) != 1 {
			return btree.Statement{}, errSyntax
		}
		return btree.Statement{Type: btree.StatementSelect}, nil
	default:
		return btree.Statement{}, errUnrecognizedStatement
	}
}

// splitFields splits on spaces and tabs. A double-quoted field may contain
// whitespace and ends at the next double quote.
func splitFields(line string) ([]string, error) {
	var fields []string
	var current strings.Builder
	inField, inQuotes := false, false

	for _, r := range line {
		switch {
		case inQuotes && r == '"':
			inQuotes = false
		case inQuotes:
			current.WriteRune(r)
		case r == '"':
			inQuotes, inField = true, true
		case r == ' ' || r == '\t':
			if inField {
				fields = append(fields, current.String())
				current.Reset()
				inField = false
			}
		default:
			current.WriteRune(r)
			inField = true
		}
	}
	if inQuotes {
		return nil, errSyntax
	}
	if inField {
		fields = append(fields, current.String())
	}
	return fields, nil
}
