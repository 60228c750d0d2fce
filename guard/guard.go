package guard

import (
	"io/ioutil"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/amcframework/amc/log"
)

var registry = struct {
	mtx    sync.Mutex
	guards map[*Guard]bool
}{
	guards: make(map[*Guard]bool),
}

var handlerOnce sync.Once

// Guard tracks the temp files and child processes of one evaluation so they
// can be cleaned up on release or on a termination signal. Every temp file is
// registered at creation and deregistered right after deletion.
type Guard struct {
	mtx   sync.Mutex
	files map[string]bool
	procs map[*exec.Cmd]bool

	logger *log.Logger
}

// New instantiates a Guard and registers it with the process wide registry
func New(logger *log.Logger) *Guard {
	g := &Guard{
		files:  make(map[string]bool),
		procs:  make(map[*exec.Cmd]bool),
		logger: logger,
	}
	registry.mtx.Lock()
	registry.guards[g] = true
	registry.mtx.Unlock()
	return g
}

// TempFile creates a registered temp file and returns its path
func (g *Guard) TempFile(pattern string) (string, error) {
	f, err := ioutil.TempFile("", pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	f.Close()
	g.Register(path)
	return path, nil
}

// Register adds a path to the live set
func (g *Guard) Register(path string) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.files[path] = true
}

// Deregister drops a path from the live set
func (g *Guard) Deregister(path string) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	delete(g.files, path)
}

// Remove deletes the file and deregisters it
func (g *Guard) Remove(path string) error {
	err := os.Remove(path)
	g.Deregister(path)
	return err
}

// Track records a started child process so a signal can kill it
func (g *Guard) Track(cmd *exec.Cmd) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.procs[cmd] = true
}

// Untrack drops a finished child process
func (g *Guard) Untrack(cmd *exec.Cmd) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	delete(g.procs, cmd)
}

// Release deletes every live file, kills every live process and removes the
// guard from the process wide registry
func (g *Guard) Release() {
	registry.mtx.Lock()
	delete(registry.guards, g)
	registry.mtx.Unlock()
	g.cleanup()
}

func (g *Guard) cleanup() {
	g.mtx.Lock()
	files := make([]string, 0, len(g.files))
	for path := range g.files {
		files = append(files, path)
	}
	procs := make([]*exec.Cmd, 0, len(g.procs))
	for cmd := range g.procs {
		procs = append(procs, cmd)
	}
	g.files = make(map[string]bool)
	g.procs = make(map[*exec.Cmd]bool)
	g.mtx.Unlock()
	for _, path := range files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if g.logger != nil {
				g.logger.With(log.LogParams{"path": path, "err": err}).Warn("Could not remove temp file")
			}
		}
	}
	for _, cmd := range procs {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}
}

var handlerDone chan struct{}

// HandleSignals installs the interrupt handler once. On SIGINT or SIGTERM it
// walks a snapshot of the registry, cleans every live guard up and closes the
// returned channel so callers can unwind. Repeated calls return the same
// channel.
func HandleSignals(logger *log.Logger) <-chan struct{} {
	handlerOnce.Do(func() {
		done := make(chan struct{})
		handlerDone = done
		termCh := make(chan os.Signal, 1)
		signal.Notify(termCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-termCh
			if logger != nil {
				logger.With(log.LogParams{"signal": sig.String()}).Info("Received signal, cleaning up")
			}
			registry.mtx.Lock()
			guards := make([]*Guard, 0, len(registry.guards))
			for g := range registry.guards {
				guards = append(guards, g)
			}
			registry.mtx.Unlock()
			for _, g := range guards {
				g.cleanup()
			}
			close(done)
		}()
	})
	return handlerDone
}
