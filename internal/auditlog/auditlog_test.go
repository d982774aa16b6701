package auditlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aliyun-rds-ip-whitelist/pkg/models"

	"github.com/stretchr/testify/require"
)

func testRecord(ts time.Time) models.LogRecord {
	return models.LogRecord{
		Timestamp:   ts,
		ServerName:  "rm-test01",
		ValidatedIP: "10.0.0.1/32",
		RuleName:    "allow_zhang_10_0_0_1_32",
		Developer:   "zhang",
		Environment: "dev",
		Status:      models.StatusSuccess,
	}
}

func TestBucketLabel(t *testing.T) {
	l := NewLogger(t.TempDir(), 0)

	// 25日在分界日之后，归入当月后半段
	require.Equal(t, "2024-03-H2", l.BucketLabel(time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)))
	// 5日在分界日之前，归入当月前半段
	require.Equal(t, "2024-03-H1", l.BucketLabel(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	// 分界日当天归入后半段
	require.Equal(t, "2024-03-H2", l.BucketLabel(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "2024-03-H1", l.BucketLabel(time.Date(2024, 3, 19, 23, 59, 0, 0, time.UTC)))
}

func TestBucketLabelCustomBoundary(t *testing.T) {
	l := NewLogger(t.TempDir(), 15)
	require.Equal(t, "2024-03-H2", l.BucketLabel(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "2024-03-H1", l.BucketLabel(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)))
}

func TestFilePath(t *testing.T) {
	l := NewLogger("/var/log/whitelist", 0)
	ts := time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC)
	require.Equal(t, filepath.Join("/var/log/whitelist", "dev_2024-03-H2.log"), l.FilePath("dev", ts))
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, 0)
	ts := time.Date(2024, 3, 25, 10, 30, 0, 0, time.UTC)

	require.NoError(t, l.Append(testRecord(ts)))

	rec2 := testRecord(ts.Add(time.Hour))
	rec2.Status = models.StatusAlreadyExists
	require.NoError(t, l.Append(rec2))

	data, err := os.ReadFile(l.FilePath("dev", ts))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, Header, lines[0])
	require.Equal(t, "2024-03-25 10:30:00,10.0.0.1/32,zhang,dev,Success,allow_zhang_10_0_0_1_32", lines[1])
	require.Contains(t, lines[2], "AlreadyExists")
}

func TestAppendQuotesSpecialCharacters(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, 0)
	ts := time.Date(2024, 3, 25, 10, 30, 0, 0, time.UTC)

	rec := testRecord(ts)
	rec.Developer = "zhang,wei"
	require.NoError(t, l.Append(rec))
	require.NoError(t, l.Append(testRecord(ts)))

	f, err := os.Open(l.FilePath("dev", ts))
	require.NoError(t, err)
	defer f.Close()

	// 含逗号的字段被引号包裹，不会导致列错位
	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows[1:] {
		require.Len(t, row, 6)
	}
	require.Equal(t, "zhang,wei", rows[1][2])
}

func TestAppendSplitsByPeriod(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, 0)

	require.NoError(t, l.Append(testRecord(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, l.Append(testRecord(time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC))))

	files, err := l.LocalFiles("dev")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, filepath.Join(dir, "dev_2024-03-H1.log"), files[0])
	require.Equal(t, filepath.Join(dir, "dev_2024-03-H2.log"), files[1])
}

func TestLocalFilesFiltersByEnv(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir, 0)
	ts := time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Append(testRecord(ts)))

	qa := testRecord(ts)
	qa.Environment = "qa"
	require.NoError(t, l.Append(qa))

	devFiles, err := l.LocalFiles("dev")
	require.NoError(t, err)
	require.Len(t, devFiles, 1)

	all, err := l.LocalFiles("")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
