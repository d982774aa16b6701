// Package cmd 实现应用的命令行入口
//
// allow         - 校验开发者IP并写入RDS白名单
// upload-manual - 手动上传本地审计日志到OSS并列出各环境的日志文件
// sched         - 以守护模式运行，定时上传审计日志
// gen-config    - 生成示例配置文件
package cmd

import (
	"errors"
	"fmt"
	"os"

	"aliyun-rds-ip-whitelist/internal/config"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// BuildVersion 构建时通过ldflags注入
var BuildVersion = "1.0.0"

var cfgFile string

// rootCmd 不带子命令调用时的基础命令
var rootCmd = &cobra.Command{
	Use:   "rds-ip-whitelist",
	Short: "RDS白名单放行工具",
	Long:  "校验开发者IP地址并写入RDS实例白名单，同时记录审计日志并支持上传到OSS。",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env中可存放AK/SK等凭证，不存在时静默跳过
		_ = godotenv.Load()
	},
}

// Execute 注册全部子命令并执行，由main.main()调用一次
func Execute() {
	setupCLI()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	rootCmd.Version = BuildVersion
	rootCmd.AddCommand(allowCmd())
	rootCmd.AddCommand(uploadManualCmd())
	rootCmd.AddCommand(schedCmd())
	rootCmd.AddCommand(genConfigCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "配置文件路径")
}

// loadConfig 加载配置并初始化日志输出
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("配置文件 %s 不存在，可先执行 gen-config 生成示例配置", cfgFile)
		}
		return nil, err
	}

	if level, errLevel := log.ParseLevel(cfg.Logging.Level); errLevel == nil {
		log.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		log.SetFormatter(log.JSONFormatter)
	}

	return cfg, nil
}
