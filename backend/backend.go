// Package backend wraps the solving and compilation engines behind small
// interfaces. Every concern has a builtin in-process implementation and an
// adapter around the corresponding external binary, selected by name in the
// configuration.
package backend

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/amcframework/amc/config"
	"github.com/amcframework/amc/guard"
)

var (
	// ErrUnknownBackend is returned when a configured backend name is not registered
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrNoModel is returned when a solver terminates without printing an assignment
	ErrNoModel = errors.New("solver did not print an assignment")
)

// ExitError reports an external binary that terminated with a nonzero code
type ExitError struct {
	Cmd  string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Cmd, e.Code)
}

// SolvingError reports a solver answer that cannot be used, an interrupted or
// incomplete run rather than a crash
type SolvingError struct {
	Cmd    string
	Reason string
}

func (e *SolvingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Cmd, e.Reason)
}

// resolve turns a configured backend name into a runnable path, names are
// taken relative to the external binary directory
func resolve(cfg *config.Config, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cfg.ExternalDir, name)
}

// run waits for a tracked command and maps a nonzero exit onto an ExitError
func run(cmd *exec.Cmd, grd *guard.Guard) error {
	grd.Track(cmd)
	defer grd.Untrack(cmd)
	if err := cmd.Run(); err != nil {
		return exitErr(cmd, err)
	}
	return nil
}

func exitErr(cmd *exec.Cmd, err error) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Cmd: filepath.Base(cmd.Path), Code: ee.ExitCode()}
	}
	return err
}
