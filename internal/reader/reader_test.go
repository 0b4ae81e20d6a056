package reader_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongolog-insights/internal/reader"
)

type recordingProgress struct {
	reports  map[string]int
	finished map[string]int64
	lastSeen map[string][2]int64
}

func newRecordingProgress() *recordingProgress {
	return &recordingProgress{
		reports:  map[string]int{},
		finished: map[string]int64{},
		lastSeen: map[string][2]int64{},
	}
}

func (p *recordingProgress) Progress(stage string, done, total int64) {
	p.reports[stage]++
	p.lastSeen[stage] = [2]int64{done, total}
}

func (p *recordingProgress) Finished(stage string, done int64) {
	p.finished[stage] = done
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mongod.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_CountAndEach(t *testing.T) {
	path := writeLog(t, "first\r\n  second  \n\nlast without newline")
	progress := newRecordingProgress()
	src := reader.NewFileSource(path, progress)

	total, err := src.CountLines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	var lines []string
	read, err := src.Each(context.Background(), total, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), read)
	assert.Equal(t, []string{"first", "second", "", "last without newline"}, lines)
	assert.Equal(t, 4, progress.reports[reader.StageCounting])
	assert.Equal(t, 4, progress.reports[reader.StageProcessing])
	assert.Equal(t, [2]int64{4, 4}, progress.lastSeen[reader.StageProcessing])
	assert.Equal(t, int64(4), progress.finished[reader.StageCounting])
	assert.Equal(t, int64(4), progress.finished[reader.StageProcessing])
}

func TestFileSource_LongLine(t *testing.T) {
	long := strings.Repeat("x", 3<<20)
	path := writeLog(t, long+"\nshort\n")
	src := reader.NewFileSource(path, nil)

	var lengths []int
	_, err := src.Each(context.Background(), 0, func(line string) {
		lengths = append(lengths, len(line))
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3 << 20, 5}, lengths)
}

func TestFileSource_MissingFile(t *testing.T) {
	src := reader.NewFileSource(filepath.Join(t.TempDir(), "absent.log"), nil)

	_, err := src.CountLines(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSource_Cancelled(t *testing.T) {
	path := writeLog(t, "a\nb\n")
	src := reader.NewFileSource(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Each(ctx, 0, func(string) {})
	assert.ErrorIs(t, err, context.Canceled)
}
