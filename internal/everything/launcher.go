package everything

import (
	"os/exec"
)

import (
	"github.com/sirupsen/logrus"

	"github.com/p00ya/chrome-everything-bridge/internal/hosterr"
)

// SearchArgs returns the arguments that make Everything open a new window
// searching for query.
func SearchArgs(query string) []string {
	return []string{"-newwindow", "-s", query}
}

// Launcher starts Everything detached from the host.
type Launcher struct {
	log logrus.FieldLogger
}

// NewLauncher returns a Launcher.
func NewLauncher(log logrus.FieldLogger) *Launcher {
	return &Launcher{log: log}
}

// Launch starts path with a search for query and returns as soon as the
// process exists.  The query is a single argument and never passes through a
// shell.
func (l *Launcher) Launch(path, query string) error {
	// Stdio stays nil so the child never writes into Chrome's stdout.
	cmd := exec.Command(path, SearchArgs(query)...)
	cmd.SysProcAttr = detachedAttr()

	l.log.Infof("Executing %q %q", path, cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		return hosterr.Wrap(err, hosterr.Launch, "launching %s", path)
	}

	// Reap the child in the background; the message loop never waits on it.
	go func(pid int) {
		err := cmd.Wait()
		l.log.WithError(err).Debugf("Everything process %d exited", pid)
	}(cmd.Process.Pid)
	return nil
}
