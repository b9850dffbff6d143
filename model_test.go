package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuechao-chen/RegressionForest/config"
	"github.com/xuechao-chen/RegressionForest/dataset"
	"github.com/xuechao-chen/RegressionForest/forest"
	"github.com/xuechao-chen/RegressionForest/treestore"
)

const stepCSV = `y,a,b
0,1,5
0,2,5
0,3,5
0,4,5
0,5,5
10,6,5
10,7,5
10,8,5
10,9,5
10,10,5
`

func fitStepModel(t *testing.T) (*Model, *dataset.TrainingSet) {
	ts, err := dataset.ReadCSV(strings.NewReader(stepCSV), 1)
	require.NoError(t, err)

	cfg := config.New(map[string]interface{}{config.NumSplitFeatures: 2})
	m := new(Model)
	err = m.Fit(context.Background(), ts, forest.NumTrees(5), forest.Seed(3), forest.ComputeOOB(), forest.WithConfig(cfg))
	require.NoError(t, err)
	return m, ts
}

func TestModelSaveLoad(t *testing.T) {
	m, ts := fitStepModel(t)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	loaded := new(Model)
	require.NoError(t, loaded.Load(&buf))
	assert.Equal(t, []string{"a", "b"}, loaded.VarNames)
	assert.Equal(t, m.Reg.ModelID, loaded.Reg.ModelID)

	want, err := m.Predict(ts.X, 0)
	require.NoError(t, err)
	got, err := loaded.Predict(ts.X, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVarImpOutput(t *testing.T) {
	m, _ := fitStepModel(t)

	var buf bytes.Buffer
	require.NoError(t, m.SaveVarImp(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	// b is constant, every split is on a
	assert.Equal(t, "a,1", lines[0])
	assert.Equal(t, "b,0", lines[1])

	buf.Reset()
	m.Report(&buf)
	assert.Contains(t, buf.String(), "Fit 5 trees using 10 examples")
	assert.Contains(t, buf.String(), "Variable Importance")
}

func TestWritePred(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePred(&buf, []string{"1.5", "2"}))
	assert.Equal(t, "1.5\n2\n", buf.String())
}

func TestWriteInfo(t *testing.T) {
	m, ts := fitStepModel(t)

	var buf bytes.Buffer
	writeInfo(&buf, m, m.Reg.Info(ts))
	out := buf.String()
	assert.Contains(t, out, "Trees:          5")
	assert.Contains(t, out, "Splits per feature")
	assert.Contains(t, out, "b              : 0")
}

func TestWriteRecords(t *testing.T) {
	m, _ := fitStepModel(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, writeRecords(ctx, &buf, m, treestore.JSONCodec{}))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	for i, line := range lines {
		r, err := treestore.JSONCodec{}.Decode([]byte(line))
		require.NoError(t, err)
		assert.Equal(t, m.Reg.TreeIDs[i], r.ID)
	}

	// bson documents start with their own little endian length
	buf.Reset()
	require.NoError(t, writeRecords(ctx, &buf, m, treestore.BSONCodec{}))
	data := buf.Bytes()
	var ids []int64
	for len(data) > 0 {
		require.True(t, len(data) >= 4)
		size := int(binary.LittleEndian.Uint32(data))
		require.True(t, size <= len(data), "document of %d bytes, %d left", size, len(data))
		r, err := treestore.BSONCodec{}.Decode(data[:size])
		require.NoError(t, err)
		_, err = r.Tree()
		require.NoError(t, err)
		ids = append(ids, r.ID)
		data = data[size:]
	}
	assert.Equal(t, m.Reg.TreeIDs, ids)
}

func TestGrowWritesProfileOnError(t *testing.T) {
	dir := t.TempDir()
	cmd := cliParser()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"grow", "-i", filepath.Join(dir, "missing.csv"), "--profile", "--profile-dir", dir})

	err := cmd.Execute()
	assert.Error(t, err)

	fi, err := os.Stat(filepath.Join(dir, "cpu.pprof"))
	require.NoError(t, err)
	assert.True(t, fi.Size() > 0, "profile was not flushed")
}
