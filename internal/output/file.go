package output

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// WriteFile renders r to path. Concurrent runs writing the same path are
// serialized through an advisory lock on path + ".lock".
func WriteFile(path, format string, r Report) error {
	var buf bytes.Buffer
	if err := Write(&buf, format, r); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
