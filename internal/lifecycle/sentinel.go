package lifecycle

import (
	"os"
)

// Sentinel is the clean-shutdown marker. A file written on orderly shutdown
// and consumed at the next startup replaces guessing from process uptime:
// if the file is missing at startup, the previous run did not shut down
// cleanly and temporary state is ambiguous.
type Sentinel struct {
	path string
}

func NewSentinel(path string) *Sentinel {
	return &Sentinel{path: path}
}

// Consume reports whether the previous shutdown was clean and removes the
// marker so a crash during this run is detected next time.
func (s *Sentinel) Consume() (bool, error) {
	_, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := os.Remove(s.path); err != nil {
		return false, err
	}
	return true, nil
}

// Mark records a clean shutdown.
func (s *Sentinel) Mark() error {
	return os.WriteFile(s.path, []byte("clean\n"), 0o644)
}
