// Package launcher starts an emulator process with the automation
// script that hosts the bridge's in-process half. Each supported
// emulator wants the script handed over differently, so the command
// shape lives here.
package launcher

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("launcher")

// Kind names a supported emulator.
type Kind string

const (
	KindMGBA    Kind = "mgba"
	KindBizHawk Kind = "bizhawk"
)

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindMGBA:
		return KindMGBA, nil
	case KindBizHawk:
		return KindBizHawk, nil
	}
	return "", fmt.Errorf("launcher: unknown emulator kind %q", s)
}

// Launcher describes one emulator invocation.
type Launcher struct {
	Kind       Kind
	Executable string
	ROM        string
	Script     string
	ExtraArgs  []string
}

// Command builds the argv used to start the emulator. The first
// element is the executable.
func (l *Launcher) Command() ([]string, error) {
	if l.Executable == "" {
		return nil, fmt.Errorf("launcher: no executable configured")
	}
	if l.ROM == "" {
		return nil, fmt.Errorf("launcher: no ROM configured")
	}

	var argv []string
	switch l.Kind {
	case KindMGBA:
		argv = []string{l.Executable, l.ROM}
		if l.Script != "" {
			argv = append(argv, "--lua-script", l.Script)
		}
	case KindBizHawk:
		argv = []string{l.Executable}
		if l.Script != "" {
			argv = append(argv, "--lua="+l.Script)
		}
		argv = append(argv, l.ROM)
	default:
		return nil, fmt.Errorf("launcher: unknown emulator kind %q", l.Kind)
	}
	return append(argv, l.ExtraArgs...), nil
}

// Start spawns the emulator and returns the running process. When
// wait is set the call blocks until the emulator exits.
func (l *Launcher) Start(wait bool) (*exec.Cmd, error) {
	argv, err := l.Command()
	if err != nil {
		return nil, err
	}
	log.Infof("starting %s: %s", l.Kind, strings.Join(argv, " "))

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launcher: start %s: %w", l.Kind, err)
	}
	if wait {
		if err := cmd.Wait(); err != nil {
			return cmd, fmt.Errorf("launcher: %s exited: %w", l.Kind, err)
		}
	}
	return cmd, nil
}
