//go:build unix

package osutil

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetProcessGroup(t *testing.T) {
	cmd := exec.Command("echo", "test")
	SetProcessGroup(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid, "Setpgid should be true")
}

// startWithChild runs a shell that forks a sleeping child and prints its PID
func startWithChild(t *testing.T, ctx context.Context) (*exec.Cmd, int) {
	t.Helper()

	script := `sleep 30 & echo "CHILD:$!"; wait`
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)

	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	childPid, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(line), "CHILD:"))
	require.NoError(t, err, "unexpected output %q", line)

	return cmd, childPid
}

func TestSetProcessGroupKill_KillsEntireProcessGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd, childPid := startWithChild(t, ctx)
	parentPid := cmd.Process.Pid

	require.NoError(t, syscall.Kill(childPid, 0), "child should be running")

	cancel()
	_ = cmd.Wait()

	assert.Eventually(t, func() bool {
		return syscall.Kill(parentPid, 0) != nil && syscall.Kill(childPid, 0) != nil
	}, 2*time.Second, 50*time.Millisecond, "parent and child should be terminated")
}

func TestSetProcessGroupKill_ProcessAlreadyDead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "true")
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)

	require.NoError(t, cmd.Start())
	require.NoError(t, cmd.Wait())

	assert.NoError(t, cmd.Cancel(), "Cancel should handle already-dead process gracefully")
}

func TestKillProcessTree(t *testing.T) {
	cmd, childPid := startWithChild(t, context.Background())
	parentPid := cmd.Process.Pid

	require.True(t, IsProcessAlive(parentPid))
	require.NoError(t, KillProcessTree(parentPid))
	_ = cmd.Wait()

	assert.Eventually(t, func() bool {
		return syscall.Kill(childPid, 0) != nil
	}, 2*time.Second, 50*time.Millisecond, "child should be terminated")
}

func TestKillProcessTree_NotRunning(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	assert.NoError(t, KillProcessTree(cmd.Process.Pid))
}
