package flushmanager

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// --- DiskManager ---

// DiskManager owns the backing file. Page n is stored at offset n*pageSize;
// the file carries no header of its own.
type DiskManager struct {
	filePath string
	file     *os.File
	pageSize int
	logger   *zap.Logger
}

// NewDiskManager opens filePath for reading and writing, creating it if needed.
func NewDiskManager(filePath string, pageSize int, logger *zap.Logger) (*DiskManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening file %s: %v", ErrIO, filePath, err)
	}
	dm := &DiskManager{
		filePath: filePath,
		file:     file,
		pageSize: pageSize,
		logger:   logger,
	}
	logger.Debug("Opened database file", zap.String("path", filePath), zap.Int("page_size", pageSize))
	return dm, nil
}

// FileLength returns the current size of the backing file in bytes.
func (dm *DiskManager) FileLength() (int64, error) {
	if dm.file == nil {
		return 0, ErrFileNotOpen
	}
	fi, err := dm.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: getting file info: %v", ErrIO, err)
	}
	return fi.Size(), nil
}

// NumPages is ceil(file_length / pageSize), never less than one.
func (dm *DiskManager) NumPages() (uint32, error) {
	length, err := dm.FileLength()
	if err != nil {
		return 0, err
	}
	pages := (length + int64(dm.pageSize) - 1) / int64(dm.pageSize)
	return uint32(max(pages, 1)), nil
}

// ReadPage fills pageData with the page at pageNum. Bytes past the end of the
// file read as zero.
func (dm *DiskManager) ReadPage(pageNum uint32, pageData []byte) (int, error) {
	if dm.file == nil {
		return 0, ErrFileNotOpen
	}
	if len(pageData) != dm.pageSize {
		return 0, fmt.Errorf("page data buffer size (%d) != disk manager page size (%d)", len(pageData), dm.pageSize)
	}
	offset := int64(pageNum) * int64(dm.pageSize)
	bytesRead, err := dm.file.ReadAt(pageData, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return bytesRead, fmt.Errorf("%w: reading page %d at offset %d: %v", ErrIO, pageNum, offset, err)
	}
	clear(pageData[bytesRead:])
	return bytesRead, nil
}

// WritePage writes pageData at the offset of pageNum.
func (dm *DiskManager) WritePage(pageNum uint32, pageData []byte) error {
	if dm.file == nil {
		return ErrFileNotOpen
	}
	if len(pageData) != dm.pageSize {
		return fmt.Errorf("page data buffer size (%d) != disk manager page size (%d)", len(pageData), dm.pageSize)
	}
	offset := int64(pageNum) * int64(dm.pageSize)
	if _, err := dm.file.WriteAt(pageData, offset); err != nil {
		return fmt.Errorf("%w: writing page %d at offset %d: %v", ErrIO, pageNum, offset, err)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (dm *DiskManager) Sync() error {
	if dm.file == nil {
		return ErrFileNotOpen
	}
	if err := dm.file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %v", ErrIO, dm.filePath, err)
	}
	return nil
}

// Close closes the underlying file handle. Closing twice is a no-op.
func (dm *DiskManager) Close() error {
	if dm.file == nil {
		return nil
	}
	err := dm.file.Close()
	dm.file = nil
	if err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrIO, dm.filePath, err)
	}
	dm.logger.Debug("Closed database file", zap.String("path", dm.filePath))
	return nil
}

func (dm *DiskManager) GetPageSize() int    { return dm.pageSize }
func (dm *DiskManager) GetFilePath() string { return dm.filePath }
