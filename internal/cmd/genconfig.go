package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// genConfigCmd 生成示例配置文件
func genConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-config",
		Short: "生成示例配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := generateSampleConfig(cfgFile); err != nil {
				return fmt.Errorf("生成示例配置文件失败: %w", err)
			}
			fmt.Printf("示例配置文件已生成: %s\n", cfgFile)
			return nil
		},
	}
}

// generateSampleConfig 生成示例配置文件
func generateSampleConfig(filePath string) error {
	sampleConfig := `# RDS IP Whitelist Configuration

# 默认环境，可被--env覆盖
environment: "dev"

# RDS配置 - 白名单读写凭证
rds:
  # 可选：配置文件中的AK/SK（不推荐，建议使用环境变量）
  # access_key_id: "RDS_USER_ACCESS_KEY_ID"
  # access_key_secret: "RDS_USER_ACCESS_KEY_SECRET"

  # 推荐：使用环境变量（可为RDS用户单独设置）
  # export RDS_ALIBABA_CLOUD_ACCESS_KEY_ID=rds_user_access_key_id
  # export RDS_ALIBABA_CLOUD_ACCESS_KEY_SECRET=rds_user_access_key_secret

  region: "ap-southeast-1"  # 新加坡区域
  resource_group_id: ""     # 默认资源组，可被--rg覆盖

# OSS配置 - 审计日志上传目标
oss:
  # 推荐：使用环境变量
  # export OSS_ALIBABA_CLOUD_ACCESS_KEY_ID=oss_user_key
  # export OSS_ALIBABA_CLOUD_ACCESS_KEY_SECRET=oss_user_secret

  region: "ap-southeast-1"
  bucket: "rds-whitelist-audit"
  prefix: "whitelist-logs/"

# 审计日志配置
audit:
  dir: "logs"        # 本地日志目录
  boundary_day: 20   # 账期分界日：当天及之后的记录归入当月后半段文件

# 定时上传配置（sched命令使用）
uploader:
  # 优先使用cron表达式（支持秒级精度）
  cron: "0 0 2 * * *"     # 每天凌晨2点执行
  # 备用：传统间隔调度（当cron为空时使用）
  interval: "24h"
  run_on_start: false     # 启动时是否立即执行一次
  environments:           # 需要上传日志的环境列表
    - "dev"
    - "qa"
    - "prod"

logging:
  level: "info"           # debug, info, warn, error
  format: "text"          # text, json
`

	// 创建目录
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	// 写入配置文件
	if err := os.WriteFile(filePath, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
