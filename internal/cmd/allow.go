package cmd

import (
	"fmt"

	"aliyun-rds-ip-whitelist/internal/auditlog"
	"aliyun-rds-ip-whitelist/internal/client"
	"aliyun-rds-ip-whitelist/internal/firewall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// allowCmd 放行命令：校验IP、查重、写入白名单并记录审计日志
func allowCmd() *cobra.Command {
	var (
		env       string
		rg        string
		server    string
		ip        string
		developer string
	)

	cmd := &cobra.Command{
		Use:   "allow",
		Short: "把开发者IP写入RDS实例白名单",
		Long: `校验开发者IP地址（可带CIDR后缀），在目标RDS实例的白名单中查重，
不存在时创建规则，并在本地审计日志中追加一条记录。

规则已存在时视为正常跳过，退出码为0。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if env == "" {
				env = cfg.Environment
			}
			switch env {
			case "dev", "qa", "prod":
			default:
				return fmt.Errorf("不支持的环境: %s (可选: dev, qa, prod)", env)
			}

			if rg == "" {
				rg = cfg.RDS.ResourceGroupId
			}
			if rg == "" {
				return fmt.Errorf("缺少参数: --rg 或配置项 rds.resource_group_id")
			}

			rdsClient, err := client.NewRDSClient(&cfg.RDS)
			if err != nil {
				return err
			}

			audit := auditlog.NewLogger(cfg.Audit.Dir, cfg.Audit.BoundaryDay)
			provisioner := firewall.NewProvisioner(rdsClient, audit)

			result, err := provisioner.Run(cmd.Context(), firewall.Request{
				Environment:   env,
				ResourceGroup: rg,
				ServerName:    server,
				RawIP:         ip,
				Developer:     developer,
			})
			if err != nil {
				return err
			}

			switch result.Outcome {
			case firewall.OutcomeAlreadyExists:
				log.Info("IP已在白名单中，无需操作", "ip", result.ValidatedIP, "rule", result.RuleName)
			case firewall.OutcomeCreated:
				log.Info("IP放行完成", "ip", result.ValidatedIP, "rule", result.RuleName, "server", server)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "目标环境 (dev|qa|prod)，默认取配置文件")
	cmd.Flags().StringVar(&rg, "rg", "", "资源组ID，默认取配置文件")
	cmd.Flags().StringVar(&server, "server", "", "RDS实例ID")
	cmd.Flags().StringVar(&ip, "ip", "", "开发者IP地址，可带CIDR后缀")
	cmd.Flags().StringVar(&developer, "dev", "", "开发者名称")

	_ = cmd.MarkFlagRequired("server")
	_ = cmd.MarkFlagRequired("ip")
	_ = cmd.MarkFlagRequired("dev")

	return cmd
}
