package util

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SocatManager manages lifecycle of socat-created virtual serial pairs, used
// to run a reporter and a collector against each other without radios.
type SocatManager struct {
	mu     sync.Mutex
	cmds   []*exec.Cmd
	links  []string
	closed bool
}

// NewSocatManager initializes an empty manager.
func NewSocatManager() *SocatManager {
	return &SocatManager{}
}

// CreatePair starts a socat process that links two raw PTYs and waits until
// both link paths exist.
func (m *SocatManager) CreatePair(left, right string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("socat manager closed")
	}

	cmd := exec.Command(
		"socat",
		fmt.Sprintf("pty,raw,echo=0,link=%s", left),
		fmt.Sprintf("pty,raw,echo=0,link=%s", right),
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start socat: %w", err)
	}
	m.cmds = append(m.cmds, cmd)
	m.links = append(m.links, left, right)

	deadline := time.Now().Add(2 * time.Second)
	for !exists(left) || !exists(right) {
		if time.Now().After(deadline) {
			return fmt.Errorf("socat links %s <-> %s not ready", left, right)
		}
		time.Sleep(20 * time.Millisecond)
	}
	zap.L().Info("virtual serial pair ready",
		zap.Int("pid", cmd.Process.Pid), zap.String("left", left), zap.String("right", right))
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Cleanup stops all socat processes and removes created links.
func (m *SocatManager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, cmd := range m.cmds {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
		}
	}
	for _, path := range m.links {
		if exists(path) {
			_ = os.Remove(path)
		}
	}
	zap.L().Info("virtual serial cleanup complete", zap.Int("pairs", len(m.links)/2))
}
