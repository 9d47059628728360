package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/apkfetch/pkg/cli"
	"github.com/m-mizutani/apkfetch/pkg/domain/types"
	"github.com/m-mizutani/apkfetch/pkg/infra/firebase/firebasetest"
)

const (
	testProject = "123456"
	testAppID   = "1:123456:android:abcdef"
)

type testEnv struct {
	server *firebasetest.Server
	key    string
	dir    string
	ghEnv  string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("GITHUB_ENV", "")

	server := firebasetest.NewServer(t, testProject, testAppID,
		firebasetest.Release{
			ID:             "r3",
			DisplayVersion: "2.1",
			BuildVersion:   "21",
			Notes:          firebasetest.Notes("prod"),
			CreateTime:     "2026-10-03T10:00:00Z",
			Binary:         []byte("binary-r3"),
		},
		firebasetest.Release{
			ID:             "r2",
			DisplayVersion: "2.0",
			BuildVersion:   "20",
			CreateTime:     "2026-10-02T10:00:00Z",
			Binary:         []byte("binary-r2"),
		},
		firebasetest.Release{
			ID:             "r1",
			DisplayVersion: "1.9",
			BuildVersion:   "19",
			Notes:          firebasetest.Notes("QA | staging"),
			CreateTime:     "2026-10-01T10:00:00Z",
			Binary:         []byte("binary-r1"),
		},
	)

	dir := t.TempDir()
	return &testEnv{
		server: server,
		key:    string(server.ServiceAccountKey(t)),
		dir:    dir,
		ghEnv:  filepath.Join(dir, "github_env"),
	}
}

func (e *testEnv) args(cmd string, extra ...string) []string {
	args := []string{
		"apkfetch", "--log-level", "debug", cmd,
		"--project-number", testProject,
		"--app-id", testAppID,
		"--sa-key", e.key,
		"--firebase-endpoint", e.server.Endpoint(),
	}
	return append(args, extra...)
}

func TestFetch_EnvironmentTag(t *testing.T) {
	env := setup(t)
	outDir := filepath.Join(env.dir, "out")

	var stdout, stderr bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("fetch",
		"--env", "qa",
		"--output-dir", outDir,
		"--github-env", env.ghEnv,
	), &stdout, &stderr)
	gt.NoError(t, err)

	path := filepath.Join(outDir, "1.9(19)")
	gt.String(t, stdout.String()).Equal(path + "\n")

	content, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.String(t, string(content)).Equal("binary-r1")

	exported, err := os.ReadFile(env.ghEnv)
	gt.NoError(t, err)
	gt.String(t, string(exported)).Equal("APK_PATH=" + path + "\n")

	gt.String(t, stderr.String()).NotContains("PRIVATE KEY")
}

func TestFetch_ExactVersion(t *testing.T) {
	env := setup(t)

	var stdout bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("fetch",
		"--display-version", "2.0",
		"--build-version", "20",
		"--output-dir", env.dir,
		"--output", "app.apk",
	), &stdout, &bytes.Buffer{})
	gt.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(env.dir, "app.apk"))
	gt.NoError(t, err)
	gt.String(t, string(content)).Equal("binary-r2")
}

func TestFetch_DryRun(t *testing.T) {
	env := setup(t)
	outDir := filepath.Join(env.dir, "out")

	var stdout bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("fetch",
		"--env", "prod",
		"--output-dir", outDir,
		"--dry-run",
	), &stdout, &bytes.Buffer{})
	gt.NoError(t, err)
	gt.String(t, stdout.String()).Equal("2.1(21)\n")

	_, err = os.Stat(outDir)
	gt.Value(t, os.IsNotExist(err)).Equal(true)
}

func TestFetch_NoMatchingRelease(t *testing.T) {
	env := setup(t)

	var stdout bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("fetch",
		"--env", "beta",
		"--output-dir", env.dir,
		"--github-env", env.ghEnv,
	), &stdout, &bytes.Buffer{})
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.ErrTagNoMatchingRelease)).Equal(true)
	gt.String(t, stdout.String()).Equal("")

	_, err = os.Stat(env.ghEnv)
	gt.Value(t, os.IsNotExist(err)).Equal(true)
}

func TestFetch_MissingConfiguration(t *testing.T) {
	env := setup(t)

	err := cli.RunWithWriter(context.Background(), []string{
		"apkfetch", "fetch",
		"--project-number", testProject,
		"--firebase-endpoint", env.server.Endpoint(),
		"--app-id", testAppID,
		"--sa-key", `{"type":"authorized_user"}`,
	}, &bytes.Buffer{}, &bytes.Buffer{})
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.ErrTagConfig)).Equal(true)
	gt.Number(t, env.server.TokenRequests()).Equal(0)
}

func TestFetch_AuthenticationFailure(t *testing.T) {
	env := setup(t)
	env.server.SetRejectToken(true)

	err := cli.RunWithWriter(context.Background(), env.args("fetch",
		"--output-dir", env.dir,
	), &bytes.Buffer{}, &bytes.Buffer{})
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.ErrTagAuth)).Equal(true)
}

func TestRun_InvalidLogLevel(t *testing.T) {
	env := setup(t)

	args := env.args("fetch")
	args[2] = "verbose"
	err := cli.RunWithWriter(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{})
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.ErrTagConfig)).Equal(true)
}

func findLine(t *testing.T, output, substr string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	t.Fatalf("no line contains %q in:\n%s", substr, output)
	return ""
}

func TestList(t *testing.T) {
	env := setup(t)

	var stdout bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("list",
		"--env", "staging",
		"--no-color",
	), &stdout, &bytes.Buffer{})
	gt.NoError(t, err)

	out := stdout.String()
	gt.String(t, out).Contains("LABEL")
	gt.String(t, out).NotContains("\x1b[")

	gt.String(t, findLine(t, out, "2.1(21)")).Contains("prod")
	gt.String(t, findLine(t, out, "2.1(21)")).NotContains("*")
	gt.String(t, findLine(t, out, "2.0(20)")).NotContains("*")
	gt.String(t, findLine(t, out, "1.9(19)")).Contains("qa,staging")
	gt.String(t, findLine(t, out, "1.9(19)")).Contains("*")

	gt.String(t, out).Contains("Selected 1.9(19) by environment")
}

func TestList_Colored(t *testing.T) {
	env := setup(t)
	text.EnableColors()

	var stdout bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("list",
		"--env", "staging",
	), &stdout, &bytes.Buffer{})
	gt.NoError(t, err)

	// selected row is painted
	gt.String(t, findLine(t, stdout.String(), "1.9(19)")).Contains("\x1b[")
}

func TestList_NothingSelected(t *testing.T) {
	env := setup(t)

	var stdout bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("list",
		"--env", "beta",
		"--no-color",
	), &stdout, &bytes.Buffer{})
	gt.NoError(t, err)
	gt.String(t, stdout.String()).NotContains("*")
	gt.String(t, stdout.String()).Contains(`No release matches environment "beta"`)
}

func TestList_ProfileWithOutputDir(t *testing.T) {
	env := setup(t)

	profile := filepath.Join(env.dir, "profile.toml")
	gt.NoError(t, os.WriteFile(profile, []byte(`
environment = "prod"
output_dir = "artifacts"
`), 0600))

	var stdout bytes.Buffer
	err := cli.RunWithWriter(context.Background(), env.args("list",
		"--profile", profile,
		"--no-color",
	), &stdout, &bytes.Buffer{})
	gt.NoError(t, err)
	gt.String(t, findLine(t, stdout.String(), "2.1(21)")).Contains("*")
}
