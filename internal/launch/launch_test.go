package launch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/customDefenderInstall/internal/install"
)

func TestLaunchArgs(t *testing.T) {
	req := &install.Request{
		Console:     "console.local:8084",
		Passthrough: []string{"--install-host", "--ws-port", "9998"},
	}

	t.Run("with sudo", func(t *testing.T) {
		l := New()
		assert.Equal(t, "sudo", l.command())
		assert.Equal(t,
			[]string{"bash", "/tmp/x/defender.sh", "-c", "console.local:8084", "--install-host", "--ws-port", "9998"},
			l.args("/tmp/x/defender.sh", req))
	})

	t.Run("without sudo", func(t *testing.T) {
		l := &Launcher{}
		assert.Equal(t, "bash", l.command())
		assert.Equal(t,
			[]string{"/tmp/x/defender.sh", "-c", "console.local:8084", "--install-host", "--ws-port", "9998"},
			l.args("/tmp/x/defender.sh", req))
	})
}

func TestLaunch(t *testing.T) {
	parent := t.TempDir()
	l := &Launcher{ParentDir: parent, WorkDir: t.TempDir()}
	req := &install.Request{Console: "console.local:8084"}

	t.Run("relays the exit code", func(t *testing.T) {
		code, err := l.Launch(context.Background(), []byte("#!/bin/bash\nexit 3\n"), req)
		require.NoError(t, err)
		assert.Equal(t, 3, code)
	})

	t.Run("success", func(t *testing.T) {
		code, err := l.Launch(context.Background(), []byte("#!/bin/bash\nexit 0\n"), req)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
	})

	t.Run("scratch directory is removed", func(t *testing.T) {
		_, err := l.Launch(context.Background(), []byte("#!/bin/bash\nexit 0\n"), req)
		require.NoError(t, err)

		entries, err := os.ReadDir(parent)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("arguments reach the child", func(t *testing.T) {
		withArgs := &install.Request{Console: "console.local:8084", Passthrough: []string{"ok"}}
		code, err := l.Launch(context.Background(), []byte("#!/bin/bash\n[ \"$1\" = \"-c\" ] && [ \"$3\" = \"ok\" ]\n"), withArgs)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
	})
}

// The installer's work folder is relative to its working directory, so it
// must land in WorkDir and outlive the scratch dir. Whether it survives the
// whole run is decided by the script's own cleanup statement (neutralized by
// the retention patch), never by the launcher.
func TestLaunchWorkDirRetention(t *testing.T) {
	t.Run("retained work directory survives the run", func(t *testing.T) {
		parent := t.TempDir()
		work := t.TempDir()
		l := &Launcher{ParentDir: parent, WorkDir: work}
		req := &install.Request{Console: "console.local:8084", KeepWorkFiles: true}

		// cleanup statement already rewritten to a no-op
		script := "#!/bin/bash\nmkdir -p .twistlock\ntouch .twistlock/kept\n: # work directory retained by defenderctl\n"
		code, err := l.Launch(context.Background(), []byte(script), req)
		require.NoError(t, err)
		assert.Equal(t, 0, code)

		assert.FileExists(t, filepath.Join(work, ".twistlock", "kept"))

		entries, err := os.ReadDir(parent)
		require.NoError(t, err)
		assert.Empty(t, entries, "the scratch directory is removed even when work files are kept")
	})

	t.Run("unpatched cleanup still removes it", func(t *testing.T) {
		work := t.TempDir()
		l := &Launcher{ParentDir: t.TempDir(), WorkDir: work}
		req := &install.Request{Console: "console.local:8084"}

		script := "#!/bin/bash\nmkdir -p .twistlock\ntouch .twistlock/gone\nrm -rf .twistlock\n"
		code, err := l.Launch(context.Background(), []byte(script), req)
		require.NoError(t, err)
		assert.Equal(t, 0, code)

		assert.NoDirExists(t, filepath.Join(work, ".twistlock"))
	})
}
