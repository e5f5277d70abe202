// Package record implements the fixed-width binary layout of a single table row.
package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// --- Row Layout ---

const (
	IDSize       = 4
	UsernameSize = 32
	EmailSize    = 255

	IDOffset       = 0
	UsernameOffset = IDOffset + IDSize
	EmailOffset    = UsernameOffset + UsernameSize

	// Size is the serialized size of one row (ROW_SIZE).
	Size = IDSize + UsernameSize + EmailSize
)

var (
	ErrValueTooLong = errors.New("value too long for column")
	ErrInvalidValue = errors.New("value contains a zero byte")
	ErrShortRecord  = errors.New("record buffer does not match row size")
)

// ValueTooLongError reports which column overflowed its fixed width.
type ValueTooLongError struct {
	Field string
	Len   int
	Max   int
}

func (e *ValueTooLongError) Error() string {
	return fmt.Sprintf("%s: %s is %d bytes, max %d", ErrValueTooLong, e.Field, e.Len, e.Max)
}

func (e *ValueTooLongError) Is(target error) bool { return target == ErrValueTooLong }

// Row is the decoded form of a record.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

func (r Row) String() string {
	return fmt.Sprintf("Row<id:%d, username:%s, email:%s>", r.ID, r.Username, r.Email)
}

// Encode serializes a row, zero padding each string column to its width.
func Encode(id uint32, username, email string) ([]byte, error) {
	if err := checkColumn("username", username, UsernameSize); err != nil {
		return nil, err
	}
	if err := checkColumn("email", email, EmailSize); err != nil {
		return nil, err
	}
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf[IDOffset:], id)
	copy(buf[UsernameOffset:UsernameOffset+UsernameSize], username)
	copy(buf[EmailOffset:EmailOffset+EmailSize], email)
	return buf, nil
}

// EncodeRow is Encode for an already assembled Row.
func EncodeRow(r Row) ([]byte, error) {
	return Encode(r.ID, r.Username, r.Email)
}

// Decode is the inverse of Encode. Each string ends at its first zero byte.
func Decode(buf []byte) (Row, error) {
	if len(buf) < Size {
		return Row{}, fmt.Errorf("%w: got %d bytes, want %d", ErrShortRecord, len(buf), Size)
	}
	return Row{
		ID:       GetID(buf),
		Username: cString(buf[UsernameOffset : UsernameOffset+UsernameSize]),
		Email:    cString(buf[EmailOffset : EmailOffset+EmailSize]),
	}, nil
}

// GetID reads only the primary key of an encoded row.
func GetID(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[IDOffset : IDOffset+IDSize])
}

func checkColumn(field, value string, limit int) error {
	if len(value) > limit {
		return &ValueTooLongError{Field: field, Len: len(value), Max: limit}
	}
	if bytes.IndexByte([]byte(value), 0) >= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidValue, field)
	}
	return nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
