package client

import (
	"context"
	"fmt"
	"os"
	"strings"

	"aliyun-rds-ip-whitelist/internal/config"
	"aliyun-rds-ip-whitelist/internal/firewall"
	"aliyun-rds-ip-whitelist/pkg/models"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	rds20140815 "github.com/alibabacloud-go/rds-20140815/v3/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
)

// RDSClient 阿里云RDS白名单客户端，实现firewall.RuleService
type RDSClient struct {
	config *config.RDSConfig
	client *rds20140815.Client
}

var _ firewall.RuleService = (*RDSClient)(nil)

// NewRDSClient 创建新的RDS白名单客户端
func NewRDSClient(cfg *config.RDSConfig) (*RDSClient, error) {
	// 初始化安全凭证
	cred, err := initializeCredential(&cfg.AliyunConfig)
	if err != nil {
		return nil, fmt.Errorf("初始化RDS客户端凭证失败: %w", err)
	}

	apiConfig := &openapi.Config{
		Credential: cred,
		RegionId:   tea.String(cfg.Region),
	}

	// 根据区域设置对应的endpoint
	if cfg.Region == "cn-hangzhou" {
		apiConfig.Endpoint = tea.String("rds.aliyuncs.com")
	} else {
		apiConfig.Endpoint = tea.String(fmt.Sprintf("rds.%s.aliyuncs.com", cfg.Region))
	}

	rdsClient, err := rds20140815.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("创建RDS客户端失败: %w", err)
	}

	return &RDSClient{
		config: cfg,
		client: rdsClient,
	}, nil
}

// initializeCredential 初始化安全凭证
func initializeCredential(cfg *config.AliyunConfig) (credential.Credential, error) {
	// 1. 优先使用配置文件中的AK/SK
	if cfg.AccessKeyId != "" && cfg.AccessKeySecret != "" {
		return credential.NewCredential(&credential.Config{
			Type:            tea.String("access_key"),
			AccessKeyId:     tea.String(cfg.AccessKeyId),
			AccessKeySecret: tea.String(cfg.AccessKeySecret),
		})
	}

	// 2. 尝试使用RDS专用环境变量
	rdsAccessKeyId := os.Getenv("RDS_ALIBABA_CLOUD_ACCESS_KEY_ID")
	rdsAccessKeySecret := os.Getenv("RDS_ALIBABA_CLOUD_ACCESS_KEY_SECRET")

	if rdsAccessKeyId != "" && rdsAccessKeySecret != "" {
		return credential.NewCredential(&credential.Config{
			Type:            tea.String("access_key"),
			AccessKeyId:     tea.String(rdsAccessKeyId),
			AccessKeySecret: tea.String(rdsAccessKeySecret),
		})
	}

	// 3. 回退到标准环境变量
	standardAccessKeyId := os.Getenv("ALIBABA_CLOUD_ACCESS_KEY_ID")
	standardAccessKeySecret := os.Getenv("ALIBABA_CLOUD_ACCESS_KEY_SECRET")

	if standardAccessKeyId != "" && standardAccessKeySecret != "" {
		return credential.NewCredential(&credential.Config{
			Type:            tea.String("access_key"),
			AccessKeyId:     tea.String(standardAccessKeyId),
			AccessKeySecret: tea.String(standardAccessKeySecret),
		})
	}

	// 4. 使用默认凭证链
	return credential.NewCredential(nil)
}

// List 查询实例的全部白名单规则
// 每个白名单分组的每个IP映射为一条规则，规则名取分组名
// 白名单API只按实例ID定位，资源组参数在此实现中不参与请求
func (c *RDSClient) List(_ context.Context, _, serverName string) ([]models.FirewallRule, error) {
	request := &rds20140815.DescribeDBInstanceIPArrayListRequest{
		DBInstanceId: tea.String(serverName),
	}

	runtime := &util.RuntimeOptions{}

	response, err := c.client.DescribeDBInstanceIPArrayListWithOptions(request, runtime)
	if err != nil {
		return nil, fmt.Errorf("%w: 调用DescribeDBInstanceIPArrayList API失败: %v", firewall.ErrServiceUnavailable, err)
	}

	if response.Body == nil || response.Body.Items == nil {
		return nil, nil
	}

	var rules []models.FirewallRule
	for _, array := range response.Body.Items.DBInstanceIPArray {
		if array == nil {
			continue
		}

		groupName := tea.StringValue(array.DBInstanceIPArrayName)
		for _, entry := range strings.Split(tea.StringValue(array.SecurityIPList), ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}

			// 分组中可能存储CIDR形式，规则起止地址只保留地址部分
			addr := entry
			if idx := strings.Index(entry, "/"); idx >= 0 {
				addr = entry[:idx]
			}

			rules = append(rules, models.FirewallRule{
				Name:    groupName,
				StartIP: addr,
				EndIP:   addr,
			})
		}
	}

	return rules, nil
}

// Create 以追加模式把规则写入以规则名命名的白名单分组
// 服务端不做幂等保证，调用方需先通过List查重
func (c *RDSClient) Create(_ context.Context, _, serverName string, rule models.FirewallRule) error {
	request := &rds20140815.ModifySecurityIpsRequest{
		DBInstanceId:          tea.String(serverName),
		DBInstanceIPArrayName: tea.String(rule.Name),
		SecurityIps:           tea.String(rule.StartIP),
		ModifyMode:            tea.String("Append"),
	}

	runtime := &util.RuntimeOptions{}

	if _, err := c.client.ModifySecurityIpsWithOptions(request, runtime); err != nil {
		return fmt.Errorf("%w: 调用ModifySecurityIps API失败: %v", firewall.ErrServiceUnavailable, err)
	}

	return nil
}
