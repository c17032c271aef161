package test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

const snapshotDir = "testdata/snapshots"

// Snapshoter compares values against golden files stored next to the test
// package. Run the tests with TEST_UPDATE_SNAPSHOTS=true to rewrite them.
var Snapshoter = snapshoter{
	update: os.Getenv("TEST_UPDATE_SNAPSHOTS") == "true",
}

type snapshoter struct {
	update bool
	label  string
}

// Label returns a copy whose golden file names carry the given suffix,
// allowing multiple snapshots per test.
func (s snapshoter) Label(label string) snapshoter {
	s.label = label
	return s
}

// Update returns a copy that always rewrites its golden files.
func (s snapshoter) Update(update bool) snapshoter {
	s.update = update
	return s
}

// Save compares the spew dump of data against the stored snapshot.
func (s snapshoter) Save(t *testing.T, data ...interface{}) {
	t.Helper()
	s.save(t, spewConfig.Sdump(data...))
}

// SaveString compares a raw string against the stored snapshot.
func (s snapshoter) SaveString(t *testing.T, data string) {
	t.Helper()
	s.save(t, data)
}

func (s snapshoter) save(t *testing.T, dump string) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	path := filepath.Join(snapshotDir, fmt.Sprintf("%s%s.golden", name, s.label))

	if s.update {
		writeSnapshot(t, path, dump)
		t.Logf("Updated snapshot %s", path)
		return
	}

	stored, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		writeSnapshot(t, path, dump)
		t.Fatalf("Snapshot %s was missing and has been created, commit it and rerun the test", path)
		return
	}
	if err != nil {
		t.Fatalf("Failed to read snapshot %s: %v", path, err)
	}

	if string(stored) == dump {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(stored)),
		B:        difflib.SplitLines(dump),
		FromFile: "Stored",
		ToFile:   "Current",
		Context:  3,
	})
	if err != nil {
		t.Fatalf("Failed to diff snapshot %s: %v", path, err)
	}

	t.Errorf("Snapshot %s differs, rerun with TEST_UPDATE_SNAPSHOTS=true to update:\n%s", path, diff)
}

func writeSnapshot(t *testing.T, path, dump string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create snapshot directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatalf("Failed to write snapshot %s: %v", path, err)
	}
}
