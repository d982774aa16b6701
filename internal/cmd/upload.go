package cmd

import (
	"fmt"
	"io"
	"os"

	"aliyun-rds-ip-whitelist/internal/auditlog"
	"aliyun-rds-ip-whitelist/internal/client"
	"aliyun-rds-ip-whitelist/internal/scheduler"

	"github.com/spf13/cobra"
)

// remoteLister 已上传日志对象的查询端
type remoteLister interface {
	ListRemote() ([]string, error)
}

// uploadManualCmd 手动上传命令：把本地审计日志全部上传到OSS
func uploadManualCmd() *cobra.Command {
	var envs []string

	cmd := &cobra.Command{
		Use:   "upload-manual",
		Short: "上传本地审计日志到OSS并列出各环境的日志文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if len(envs) > 0 {
				cfg.Uploader.Environments = envs
			}

			audit := auditlog.NewLogger(cfg.Audit.Dir, cfg.Audit.BoundaryDay)

			ossClient, err := client.NewOSSClient(&cfg.OSS)
			if err != nil {
				return err
			}

			task, err := scheduler.NewScheduler(cfg, audit, ossClient).RunOnce()
			if err != nil {
				return err
			}

			// 部分文件上传失败也先输出清单，再以失败退出
			if errPrint := printLogInventory(os.Stdout, cfg.Uploader.Environments, audit, ossClient); errPrint != nil {
				return errPrint
			}

			if task.Status == "completed_with_errors" {
				return fmt.Errorf("部分日志上传失败: %s", task.ErrorMsg)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&envs, "env", nil, "要上传的环境列表，默认取配置文件")

	return cmd
}

// printLogInventory 输出各环境的本地日志文件和OSS中已上传的日志对象
func printLogInventory(out io.Writer, envs []string, files scheduler.FileLister, remote remoteLister) error {
	for _, env := range envs {
		localFiles, err := files.LocalFiles(env)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "环境 %s 的日志文件 (%d个):\n", env, len(localFiles))
		for _, file := range localFiles {
			fmt.Fprintf(out, "  %s\n", file)
		}
	}

	keys, err := remote.ListRemote()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "OSS中已上传的日志对象 (%d个):\n", len(keys))
	for _, key := range keys {
		fmt.Fprintf(out, "  %s\n", key)
	}

	return nil
}
