package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"aliyun-rds-ip-whitelist/internal/auditlog"
	"aliyun-rds-ip-whitelist/internal/client"
	"aliyun-rds-ip-whitelist/internal/scheduler"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// schedCmd 守护模式：按cron或固定间隔定时上传审计日志
func schedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sched",
		Short: "以守护模式运行，定时上传审计日志到OSS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			audit := auditlog.NewLogger(cfg.Audit.Dir, cfg.Audit.BoundaryDay)

			ossClient, err := client.NewOSSClient(&cfg.OSS)
			if err != nil {
				return err
			}

			sched := scheduler.NewScheduler(cfg, audit, ossClient)

			// 设置信号处理
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				<-sigChan
				log.Info("接收到停止信号，正在优雅关闭...")
				sched.Stop()
			}()

			if err := sched.Start(); err != nil {
				return err
			}

			log.Info("程序已退出")
			return nil
		},
	}
}
