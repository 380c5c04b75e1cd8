package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"AffiliationChecker/internal/domain"
)

// csvSink flushes after every row so an interrupted run keeps what it finished.
type csvSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	lock   *flock.Flock
	closed bool
}

func newCSVSink(path string, lock *flock.Flock, resume bool) (*csvSink, error) {
	keep := false
	if resume {
		var err error
		if keep, err = existingOutput(path); err != nil {
			return nil, err
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if keep {
		flags = os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}

	s := &csvSink{file: file, writer: csv.NewWriter(file), lock: lock}
	if keep {
		return s, nil
	}
	if err := s.writeRecord(Header); err != nil {
		_ = file.Close()
		return nil, err
	}
	return s, nil
}

func (s *csvSink) Write(v domain.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("write to closed csv sink")
	}
	return s.writeRecord(Row(v))
}

func (s *csvSink) writeRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

func (s *csvSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.writer.Flush()
	err := errors.Join(s.writer.Error(), s.file.Close(), releaseLock(s.lock))
	if err != nil {
		return fmt.Errorf("close csv output: %w", err)
	}
	return nil
}
