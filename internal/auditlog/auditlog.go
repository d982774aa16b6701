package auditlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"aliyun-rds-ip-whitelist/pkg/models"
)

// Header 审计日志文件的表头行
const Header = "Timestamp,IP,Developer,Environment,Status,RuleName"

// DefaultBoundaryDay 账期分界日：每月20日及之后的记录归入当月后半段文件
const DefaultBoundaryDay = 20

// Logger 按账期分桶的追加式审计日志
// 单次调用模型下不加文件锁，只追加、不回写
type Logger struct {
	dir         string
	boundaryDay int
}

// NewLogger 创建审计日志器，boundaryDay<=0时使用默认分界日
func NewLogger(dir string, boundaryDay int) *Logger {
	if boundaryDay <= 0 {
		boundaryDay = DefaultBoundaryDay
	}
	return &Logger{
		dir:         dir,
		boundaryDay: boundaryDay,
	}
}

// BucketLabel 计算记录所属的账期标签
// 日期在分界日之前归入当月前半段(H1)，分界日当天及之后归入后半段(H2)
func (l *Logger) BucketLabel(t time.Time) string {
	half := "H1"
	if t.Day() >= l.boundaryDay {
		half = "H2"
	}
	return fmt.Sprintf("%s-%s", t.Format("2006-01"), half)
}

// FilePath 返回指定环境和时间对应的日志文件路径：{dir}/{env}_{label}.log
func (l *Logger) FilePath(env string, t time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s_%s.log", env, l.BucketLabel(t)))
}

// Append 追加一条审计记录，文件不存在时先写入表头行
func (l *Logger) Append(rec models.LogRecord) error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	path := l.FilePath(rec.Environment, rec.Timestamp)

	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	defer f.Close()

	if newFile {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("写入日志表头失败: %w", err)
		}
	}

	// 字段中出现逗号等特殊字符时按CSV规则加引号，避免列错位
	writer := csv.NewWriter(f)
	if err := writer.Write([]string{
		rec.Timestamp.Format("2006-01-02 15:04:05"),
		rec.ValidatedIP,
		rec.Developer,
		rec.Environment,
		string(rec.Status),
		rec.RuleName,
	}); err != nil {
		return fmt.Errorf("写入审计记录失败: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("写入审计记录失败: %w", err)
	}

	return nil
}

// LocalFiles 列出指定环境的全部本地日志文件，env为空时返回所有环境的文件
func (l *Logger) LocalFiles(env string) ([]string, error) {
	pattern := "*_*.log"
	if env != "" {
		pattern = env + "_*.log"
	}

	files, err := filepath.Glob(filepath.Join(l.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("扫描日志目录失败: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
