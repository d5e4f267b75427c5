package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"kaldiark/internal/ark"
	"kaldiark/internal/config"
	"kaldiark/internal/npz"
	"kaldiark/internal/store"
	"kaldiark/internal/testsupport"
)

const sampleArchive = "utt1  [\n 1.5 -2 3\n 4 5 6 ]\nutt2  [\n]\nutt3  [\n 0.25 0.5 0.75 ]\n"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("KALDIARK_LOG_LEVEL", "")
	t.Setenv("KALDIARK_STORE_PATH", "")

	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) path(name string) string {
	return filepath.Join(e.baseDir, name)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIConvertAndRender(t *testing.T) {
	env := setupCLITestEnv(t)
	arkPath := env.path("feats.ark")
	npzPath := env.path("out/feats.npz")
	testsupport.WriteFile(t, arkPath, sampleArchive)

	out, _, err := runCLI(t, []string{"convert", arkPath, npzPath}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, out, "Converted 3 records")

	exported, err := npz.ReadFile(npzPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff([]string{"utt1", "utt2", "utt3"}, exported.Keys()); diff != "" {
		t.Fatalf("npz keys mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(npzPath + ".lock"); err != nil {
		t.Fatalf("expected lock file beside output: %v", err)
	}

	renderedPath := env.path("rendered.ark")
	if _, _, err := runCLI(t, []string{"render", npzPath, renderedPath}, env.configPath); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := testsupport.ReadFile(t, renderedPath); got != sampleArchive {
		t.Fatalf("rendered archive mismatch:\n%s", got)
	}

	out, _, err = runCLI(t, []string{"render", npzPath, "-"}, env.configPath)
	if err != nil {
		t.Fatalf("render to stdout: %v", err)
	}
	if out != sampleArchive {
		t.Fatalf("stdout archive mismatch:\n%s", out)
	}
}

func TestCLIConvertWithFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	arkPath := env.path("feats.ark")
	filterPath := env.path("keep.txt")
	npzPath := env.path("feats.npz")
	testsupport.WriteFile(t, arkPath, sampleArchive)
	testsupport.WriteLines(t, filterPath, "utt3", "", "  utt1  ")

	if _, _, err := runCLI(t, []string{"convert", "--filter", filterPath, arkPath, npzPath}, env.configPath); err != nil {
		t.Fatalf("convert: %v", err)
	}
	exported, err := npz.ReadFile(npzPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff([]string{"utt1", "utt3"}, exported.Keys()); diff != "" {
		t.Fatalf("filtered keys mismatch (-want +got):\n%s", diff)
	}
	m, _ := exported.Get("utt3")
	if m.At(0, 1) != 0.5 {
		t.Fatalf("unexpected value %v", m.At(0, 1))
	}
}

func TestCLIRenderRejectsOversizedShape(t *testing.T) {
	env := setupCLITestEnv(t)
	npzPath := env.path("crafted.npz")

	dict := "{'descr': '<f8', 'fortran_order': False, 'shape': (4294967296, 4294967296), }\n"
	var member bytes.Buffer
	member.WriteString("\x93NUMPY\x01\x00")
	_ = binary.Write(&member, binary.LittleEndian, uint16(len(dict)))
	member.WriteString(dict)

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	w, err := zw.Create("x.npy")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := w.Write(member.Bytes()); err != nil {
		t.Fatalf("write member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	testsupport.WriteFile(t, npzPath, archive.String())

	out, _, err := runCLI(t, []string{"render", npzPath, "-"}, env.configPath)
	if !errors.Is(err, npz.ErrUnsupportedShape) {
		t.Fatalf("expected ErrUnsupportedShape, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no archive output, got %q", out)
	}
}

func TestCLIConvertParseErrorLeavesNoOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	arkPath := env.path("bad.ark")
	npzPath := env.path("bad.npz")
	testsupport.WriteFile(t, arkPath, "utt1  [\n 1 2\n 3 ]\n")

	_, _, err := runCLI(t, []string{"convert", arkPath, npzPath}, env.configPath)
	if !errors.Is(err, ark.ErrInconsistentRowWidth) {
		t.Fatalf("expected row width error, got %v", err)
	}
	if _, err := os.Stat(npzPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
}

func TestCLIDuplicatePolicyFromConfig(t *testing.T) {
	text := "a  [\n 1 ]\na  [\n 2 ]\n"

	reject := setupCLITestEnv(t)
	arkPath := reject.path("dup.ark")
	testsupport.WriteFile(t, arkPath, text)
	if _, _, err := runCLI(t, []string{"info", arkPath}, reject.configPath); !errors.Is(err, ark.ErrDuplicateIdentifier) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	lastWins := setupCLITestEnv(t, testsupport.WithDuplicates("last_wins"))
	arkPath = lastWins.path("dup.ark")
	testsupport.WriteFile(t, arkPath, text)
	out, _, err := runCLI(t, []string{"info", "--json", arkPath}, lastWins.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var summary ark.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Records != 1 || summary.Entries[0].Mean != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestCLIInfo(t *testing.T) {
	env := setupCLITestEnv(t)
	arkPath := env.path("feats.ark")
	testsupport.WriteFile(t, arkPath, sampleArchive)

	out, _, err := runCLI(t, []string{"info", arkPath}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "utt1")
	requireContains(t, out, "2.91667")
	requireContains(t, out, "3 records, 3 rows, dims 3")
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes when not a terminal:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"info", "--json", arkPath}, env.configPath)
	if err != nil {
		t.Fatalf("info --json: %v", err)
	}
	var summary ark.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	want := ark.Summary{
		Records:   3,
		TotalRows: 3,
		Dims:      []int{3},
		Entries: []ark.RecordSummary{
			{ID: "utt1", Rows: 2, Cols: 3, Min: -2, Max: 6, Mean: 17.5 / 6},
			{ID: "utt2"},
			{ID: "utt3", Rows: 1, Cols: 3, Min: 0.25, Max: 0.75, Mean: 0.5},
		},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestCLIStoreLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	arkPath := env.path("feats.ark")
	testsupport.WriteFile(t, arkPath, sampleArchive)

	out, _, err := runCLI(t, []string{"store", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	requireContains(t, out, "No imports")

	out, _, err = runCLI(t, []string{"store", "import", arkPath}, env.configPath)
	if err != nil {
		t.Fatalf("store import: %v", err)
	}
	requireContains(t, out, "Imported 3 records as ")
	id := regexp.MustCompile(`as (\S+)`).FindStringSubmatch(out)[1]

	st := testsupport.MustOpenStore(t, env.cfg)
	imp, stored, err := st.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if imp.Source != arkPath || stored.Len() != 3 {
		t.Fatalf("unexpected stored import %+v with %d records", imp, stored.Len())
	}
	_ = st.Close()

	out, _, err = runCLI(t, []string{"store", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("store list --json: %v", err)
	}
	var imports []store.Import
	if err := json.Unmarshal([]byte(out), &imports); err != nil {
		t.Fatalf("decode imports: %v", err)
	}
	if len(imports) != 1 || imports[0].ID != id || imports[0].RecordCount != 3 {
		t.Fatalf("unexpected imports %+v", imports)
	}

	out, _, err = runCLI(t, []string{"store", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	requireContains(t, out, id)

	exportPath := env.path("export.ark")
	if _, _, err := runCLI(t, []string{"store", "export", "latest", exportPath}, env.configPath); err != nil {
		t.Fatalf("store export: %v", err)
	}
	if got := testsupport.ReadFile(t, exportPath); got != sampleArchive {
		t.Fatalf("exported archive mismatch:\n%s", got)
	}

	out, _, err = runCLI(t, []string{"store", "export", id, "-"}, env.configPath)
	if err != nil {
		t.Fatalf("store export by id: %v", err)
	}
	if out != sampleArchive {
		t.Fatalf("stdout archive mismatch:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"store", "delete", id}, env.configPath)
	if err != nil {
		t.Fatalf("store delete: %v", err)
	}
	requireContains(t, out, "Deleted import "+id)

	if _, _, err := runCLI(t, []string{"store", "delete", id}, env.configPath); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"store", "export", "latest", "-"}, env.configPath); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty store, got %v", err)
	}
}

func TestCLIRenderUsesConfiguredPrecision(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPrecision(2))
	arkPath := env.path("feats.ark")
	npzPath := env.path("feats.npz")
	testsupport.WriteFile(t, arkPath, "a  [\n 0.126 1 ]\n")

	if _, _, err := runCLI(t, []string{"convert", arkPath, npzPath}, env.configPath); err != nil {
		t.Fatalf("convert: %v", err)
	}
	out, _, err := runCLI(t, []string{"render", npzPath, "-"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "a  [\n 0.13 1.00 ]\n" {
		t.Fatalf("unexpected fixed precision output %q", out)
	}
}

func TestCLIConfigInitAndShow(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("KALDIARK_LOG_LEVEL", "")
	t.Setenv("KALDIARK_STORE_PATH", "")
	target := filepath.Join(base, "conf", "kaldiark.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# loaded from "+target)
	requireContains(t, out, "duplicates = ")
	requireContains(t, out, "reject")
}

func TestCLILogLevelFlagValidated(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"--log-level", "loud", "config", "show"}, env.configPath); err == nil {
		t.Fatal("expected invalid log level to be rejected")
	}
}

func TestCLIDebugLogsGoToStderr(t *testing.T) {
	env := setupCLITestEnv(t)
	arkPath := env.path("feats.ark")
	testsupport.WriteFile(t, arkPath, sampleArchive)

	out, stderr, err := runCLI(t, []string{"--log-level", "debug", "info", "--json", arkPath}, env.configPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, stderr, "archive parsed")
	requireContains(t, stderr, "run_id")
	if strings.Contains(out, "archive parsed") {
		t.Fatal("logs leaked into stdout")
	}
}
