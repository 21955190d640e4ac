package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/medclean-cli/internal/record"
	"github.com/KaramelBytes/medclean-cli/internal/runs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const entryCSV = "Image Index, Gender ,patient_age,finding_labels,View\n" +
	"IMG_001.png,female,45Y,Effusion|None,PA\n" +
	"IMG_001.png,F,45,Effusion,PA\n" +
	"invalid_image_3.png,M,30,,AP\n" +
	"IMG_004.png,Unknown,30,,AP\n" +
	"IMG_005.png,M,abc,XYZ_Disease,AP\n"

const bboxCSV = "Image Index,Finding Label,bbox_x ,bbox-y,width,height\n" +
	"a.png,Mass,10,20,30,40\n" +
	"b.png,Nodule,1,2,0,4\n" +
	"c.png,Mass,x,2,3,4\n"

func writeSources(t *testing.T) (entry, bbox string) {
	t.Helper()
	dir := t.TempDir()
	entry = filepath.Join(dir, "Data_Entry.csv")
	bbox = filepath.Join(dir, "BBox_List.csv")
	require.NoError(t, os.WriteFile(entry, []byte(entryCSV), 0o644))
	require.NoError(t, os.WriteFile(bbox, []byte(bboxCSV), 0o644))
	return entry, bbox
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRun_EndToEnd(t *testing.T) {
	entry, bbox := writeSources(t)
	out := filepath.Join(t.TempDir(), "out")

	res, err := Run(context.Background(), Job{EntryPath: entry, BBoxPath: bbox, OutputDir: out, RunID: "r1"})
	require.NoError(t, err)

	e := res.Summary.Entry
	require.NotNil(t, e)
	assert.Equal(t, 5, e.Initial)
	assert.Equal(t, 3, e.Validated)
	assert.Equal(t, 2, e.Rejected)
	assert.Equal(t, 45, e.MedianAge)
	assert.Equal(t, 1, e.Imputed)
	assert.Equal(t, 1, e.DuplicatesRemoved)
	assert.Equal(t, 2, e.Final)

	assert.Equal(t, "Image Index,Gender,patient_age,finding_labels,View\n"+
		"001.png,F,45,Effusion,PA\n"+
		"005.png,M,45,No Finding,AP\n",
		readFile(t, filepath.Join(out, EntryCleanedFile)))
	assert.Equal(t, "Image Index,Gender,patient_age,finding_labels,View,rejection_reason\n"+
		"invalid_image_3.png,M,30,,AP,Invalid Image Index\n"+
		"IMG_004.png,Unknown,30,,AP,Invalid/Missing Gender: Unknown\n",
		readFile(t, filepath.Join(out, EntryBadFile)))

	b := res.Summary.BBox
	require.NotNil(t, b)
	assert.Equal(t, 3, b.Initial)
	assert.Equal(t, 2, b.Rejected)
	assert.Equal(t, 1, b.Final)
	assert.Equal(t, "Image Index,Finding Label,bbox_x,bbox_y,width,height\n"+
		"a.png,Mass,10,20,30,40\n",
		readFile(t, filepath.Join(out, BBoxCleanedFile)))
	assert.Equal(t, "Image Index,Finding Label,bbox_x ,bbox-y,width,height,rejection_reason\n"+
		"b.png,Nodule,1,2,0,4,\"Invalid Coordinates: x=1, y=2, w=0, h=4\"\n"+
		"c.png,Mass,x,2,3,4,Malformed Coordinates\n",
		readFile(t, filepath.Join(out, BBoxBadFile)))

	md := readFile(t, filepath.Join(out, ReportFile))
	assert.Contains(t, md, "- **Duplicates Removed**: 1\n")
	assert.Contains(t, md, "## BBox_List.csv\n")
	assert.FileExists(t, filepath.Join(out, SummaryFile))

	run, err := runs.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "r1", run.ID)
	assert.Len(t, run.Outputs, 6)
	require.Len(t, run.Inputs, 2)
	assert.True(t, run.Inputs[0].Found)
	assert.Equal(t, 5, run.Inputs[0].Rows)
}

func TestRun_Idempotent(t *testing.T) {
	entry, _ := writeSources(t)
	first := filepath.Join(t.TempDir(), "first")
	_, err := Run(context.Background(), Job{EntryPath: entry, OutputDir: first})
	require.NoError(t, err)

	second := filepath.Join(t.TempDir(), "second")
	res, err := Run(context.Background(), Job{EntryPath: filepath.Join(first, EntryCleanedFile), OutputDir: second})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.Entry.Rejected)
	assert.Equal(t, 0, res.Summary.Entry.DuplicatesRemoved)
	assert.Equal(t, 0, res.Summary.Entry.Imputed)
	assert.Equal(t,
		readFile(t, filepath.Join(first, EntryCleanedFile)),
		readFile(t, filepath.Join(second, EntryCleanedFile)))
}

func TestRun_MissingSourceIsNote(t *testing.T) {
	_, bbox := writeSources(t)
	out := t.TempDir()
	core, logs := observer.New(zap.WarnLevel)

	res, err := Run(context.Background(), Job{
		EntryPath: filepath.Join(t.TempDir(), "Data_Entry.csv"),
		BBoxPath:  bbox,
		OutputDir: out,
		Logger:    zap.New(core),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Summary.Entry)
	require.NotNil(t, res.Summary.BBox)
	assert.Equal(t, []string{"Error: Data_Entry.csv not found."}, res.Summary.Notes)
	assert.NoFileExists(t, filepath.Join(out, EntryCleanedFile))
	assert.FileExists(t, filepath.Join(out, BBoxCleanedFile))
	assert.Contains(t, readFile(t, filepath.Join(out, ReportFile)), "- Error: Data_Entry.csv not found.")
	assert.Equal(t, 1, logs.FilterMessage("source not found, skipping pipeline").Len())
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	entry, bbox := writeSources(t)
	out := filepath.Join(t.TempDir(), "never")

	res, err := Run(context.Background(), Job{EntryPath: entry, BBoxPath: bbox, OutputDir: out, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.Entry.Final)
	assert.NoDirExists(t, out)
}

func TestRun_MirrorsManifestIntoRunsDir(t *testing.T) {
	entry, _ := writeSources(t)
	runsDir := t.TempDir()
	out := t.TempDir()

	res, err := Run(context.Background(), Job{EntryPath: entry, OutputDir: out, RunsDir: runsDir})
	require.NoError(t, err)

	listed, err := runs.List(runsDir)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, res.Run.ID, listed[0].ID)
	assert.Equal(t, out, listed[0].OutputDir)
}

func TestRun_RequiresOutputDir(t *testing.T) {
	_, err := Run(context.Background(), Job{})
	assert.Error(t, err)
}

func TestCanonicalHeader(t *testing.T) {
	got := canonicalHeader([]string{"\ufeffImage Index", " Gender ", "Gender", record.FieldPatientAge})
	assert.Equal(t, []string{"Image Index", "Gender", record.FieldPatientAge}, got)
}
