package firewall

import (
	"context"
	"errors"

	"aliyun-rds-ip-whitelist/pkg/models"
)

// ErrServiceUnavailable 云端白名单服务调用失败
var ErrServiceUnavailable = errors.New("白名单服务调用失败")

// RuleService 白名单规则服务的边界接口
// 具体实现见internal/client，测试中可注入假实现
type RuleService interface {
	// List 列出指定实例当前的全部白名单规则
	List(ctx context.Context, resourceGroup, serverName string) ([]models.FirewallRule, error)
	// Create 创建一条新的白名单规则，服务端不保证幂等，调用方需先查重
	Create(ctx context.Context, resourceGroup, serverName string, rule models.FirewallRule) error
}

// FindDuplicate 在已有规则中查找与候选地址完全相同的规则
// 匹配策略为起止IP的字符串精确比较，不做CIDR子网包含判断：
// 候选/24与其范围内已存在的/32视为两条不同规则
func FindDuplicate(startIP, endIP string, rules []models.FirewallRule) (string, bool) {
	for _, rule := range rules {
		if rule.StartIP == startIP && rule.EndIP == endIP {
			return rule.Name, true
		}
	}
	return "", false
}
