package scheduler

import (
	"context"
	"fmt"
	"time"

	"aliyun-rds-ip-whitelist/internal/config"
	"aliyun-rds-ip-whitelist/pkg/models"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Uploader 日志文件上传端
type Uploader interface {
	Upload(localPath string) (string, error)
}

// FileLister 本地日志文件来源
type FileLister interface {
	LocalFiles(env string) ([]string, error)
}

// Scheduler 定时上传审计日志的调度器
type Scheduler struct {
	config     *config.Config
	files      FileLister
	uploader   Uploader
	stopCh     chan struct{}
	ctx        context.Context
	cancelFunc context.CancelFunc
	cron       *cron.Cron
}

// NewScheduler 创建新的调度器
func NewScheduler(cfg *config.Config, files FileLister, uploader Uploader) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config:     cfg,
		files:      files,
		uploader:   uploader,
		stopCh:     make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	// 如果启用了立即执行，先执行一次
	if s.config.Uploader.RunOnStart {
		log.Info("执行初始上传任务...")
		if _, err := s.executeUploadTask(); err != nil {
			log.Error("初始上传任务失败", "error", err)
		}
	}

	// 优先使用cron表达式
	if s.config.Uploader.Cron != "" {
		return s.startWithCron()
	}

	// 否则使用传统的间隔调度
	return s.startWithInterval()
}

// startWithCron 使用cron表达式启动调度器
func (s *Scheduler) startWithCron() error {
	log.Info("启动cron调度器", "cron", s.config.Uploader.Cron)

	// 创建cron调度器，支持秒级的cron表达式
	s.cron = cron.New(cron.WithSeconds())

	// 添加任务
	_, err := s.cron.AddFunc(s.config.Uploader.Cron, func() {
		log.Info("开始执行定时上传任务...")
		if _, err := s.executeUploadTask(); err != nil {
			log.Error("上传任务执行失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加cron任务失败: %w", err)
	}

	// 启动cron调度器
	s.cron.Start()
	log.Info("cron调度器已启动")

	// 等待停止信号
	select {
	case <-s.ctx.Done():
		log.Info("调度器收到停止信号")
	case <-s.stopCh:
		log.Info("调度器已停止")
	}

	return nil
}

// startWithInterval 使用传统间隔启动调度器
func (s *Scheduler) startWithInterval() error {
	log.Info("启动间隔调度器", "interval", s.config.Uploader.Interval)

	// 解析执行间隔
	interval, err := time.ParseDuration(s.config.Uploader.Interval)
	if err != nil {
		return fmt.Errorf("解析执行间隔失败: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("调度器已启动", "next_run", time.Now().Add(interval).Format("2006-01-02 15:04:05"))

	for {
		select {
		case <-ticker.C:
			log.Info("开始执行定时上传任务...")
			if _, err := s.executeUploadTask(); err != nil {
				log.Error("上传任务执行失败", "error", err)
			}
			log.Info("下次执行时间", "next_run", time.Now().Add(interval).Format("2006-01-02 15:04:05"))

		case <-s.ctx.Done():
			log.Info("调度器收到停止信号")
			return nil

		case <-s.stopCh:
			log.Info("调度器已停止")
			return nil
		}
	}
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	log.Info("正在停止调度器...")
	s.cancelFunc()
	if s.cron != nil {
		s.cron.Stop()
		log.Info("cron调度器已停止")
	}
	close(s.stopCh)
}

// executeUploadTask 执行一次上传任务：把配置环境下的全部本地日志文件上传到OSS
func (s *Scheduler) executeUploadTask() (*models.UploadTask, error) {
	startTime := time.Now()

	task := &models.UploadTask{
		TaskID:        fmt.Sprintf("upload_%d", startTime.Unix()),
		Status:        "running",
		StartTime:     startTime,
		UploadedFiles: []string{},
	}

	defer func() {
		task.EndTime = time.Now()
		duration := task.EndTime.Sub(task.StartTime)

		if task.Status == "running" {
			task.Status = "completed"
		}

		log.Info("上传任务结束",
			"task", task.TaskID,
			"status", task.Status,
			"files", len(task.UploadedFiles),
			"duration", duration.String())
	}()

	for _, env := range s.config.Uploader.Environments {
		files, err := s.files.LocalFiles(env)
		if err != nil {
			task.Status = "failed"
			task.ErrorMsg = fmt.Sprintf("扫描环境 %s 的日志文件失败: %v", env, err)
			return task, fmt.Errorf("%s", task.ErrorMsg)
		}

		log.Info("开始上传环境日志", "env", env, "files", len(files))

		for _, file := range files {
			key, err := s.uploader.Upload(file)
			if err != nil {
				// 记录错误但继续上传其余文件
				log.Error("上传日志文件失败", "file", file, "error", err)
				if task.ErrorMsg == "" {
					task.ErrorMsg = fmt.Sprintf("上传 %s 失败: %v", file, err)
				}
				continue
			}

			log.Info("日志文件已上传", "file", file, "key", key)
			task.UploadedFiles = append(task.UploadedFiles, file)
		}
	}

	if task.ErrorMsg != "" {
		task.Status = "completed_with_errors"
	}

	return task, nil
}

// RunOnce 立即执行一次上传任务
func (s *Scheduler) RunOnce() (*models.UploadTask, error) {
	log.Info("手动执行上传任务...")
	return s.executeUploadTask()
}
