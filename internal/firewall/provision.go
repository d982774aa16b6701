package firewall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aliyun-rds-ip-whitelist/internal/ipaddr"
	"aliyun-rds-ip-whitelist/pkg/models"

	"github.com/charmbracelet/log"
)

// Outcome 单次放行流程的终态
type Outcome string

const (
	OutcomeRejected       Outcome = "rejected"
	OutcomeAlreadyExists  Outcome = "already_exists"
	OutcomeCreated        Outcome = "created"
	OutcomeCreationFailed Outcome = "creation_failed"
)

// Request 一次放行请求的全部输入
type Request struct {
	Environment   string
	ResourceGroup string
	ServerName    string
	RawIP         string
	Developer     string
}

// Result 放行流程的执行结果
type Result struct {
	Outcome     Outcome
	ValidatedIP string
	RuleName    string
}

// AuditSink 审计记录的写入端
type AuditSink interface {
	Append(rec models.LogRecord) error
}

// Provisioner 串起校验、查重、创建和审计的放行流程
type Provisioner struct {
	rules RuleService
	audit AuditSink
	now   func() time.Time
}

// NewProvisioner 创建放行流程执行器
func NewProvisioner(rules RuleService, audit AuditSink) *Provisioner {
	return &Provisioner{
		rules: rules,
		audit: audit,
		now:   time.Now,
	}
}

// Run 执行一次完整的放行流程：清洗 -> 校验 -> 查重 -> 创建 -> 审计
// 重复规则视为正常跳过，不算错误；校验失败和创建失败都会留下Failed审计记录
func (p *Provisioner) Run(ctx context.Context, req Request) (Result, error) {
	// 1. 清洗并校验输入IP
	candidate, err := ipaddr.NormalizeAndParse(req.RawIP)
	if err != nil {
		p.record(req, models.LogRecord{
			ValidatedIP: ipaddr.Normalize(req.RawIP),
			Status:      models.StatusFailed,
		})
		return Result{Outcome: OutcomeRejected}, fmt.Errorf("IP校验失败: %w", err)
	}

	ruleName := RuleName(req.Developer, candidate)
	log.Info("IP校验通过", "ip", candidate.String(), "rule", ruleName)

	// 2. 查询已有规则并查重
	existing, err := p.rules.List(ctx, req.ResourceGroup, req.ServerName)
	if err != nil {
		p.record(req, models.LogRecord{
			ValidatedIP: candidate.String(),
			RuleName:    ruleName,
			Status:      models.StatusFailed,
		})
		return Result{Outcome: OutcomeCreationFailed, ValidatedIP: candidate.String()},
			fmt.Errorf("查询已有规则失败: %w", err)
	}

	if name, found := FindDuplicate(candidate.Addr(), candidate.Addr(), existing); found {
		log.Info("规则已存在，跳过创建", "ip", candidate.String(), "rule", name)
		p.record(req, models.LogRecord{
			ValidatedIP: candidate.String(),
			RuleName:    name,
			Status:      models.StatusAlreadyExists,
		})
		return Result{Outcome: OutcomeAlreadyExists, ValidatedIP: candidate.String(), RuleName: name}, nil
	}

	// 3. 创建新规则
	rule := models.FirewallRule{
		Name:    ruleName,
		StartIP: candidate.Addr(),
		EndIP:   candidate.Addr(),
	}

	if err := p.rules.Create(ctx, req.ResourceGroup, req.ServerName, rule); err != nil {
		p.record(req, models.LogRecord{
			ValidatedIP: candidate.String(),
			RuleName:    ruleName,
			Status:      models.StatusFailed,
		})
		return Result{Outcome: OutcomeCreationFailed, ValidatedIP: candidate.String(), RuleName: ruleName},
			fmt.Errorf("创建规则失败: %w", err)
	}

	log.Info("规则创建成功", "ip", candidate.String(), "rule", ruleName)
	p.record(req, models.LogRecord{
		ValidatedIP: candidate.String(),
		RuleName:    ruleName,
		Status:      models.StatusSuccess,
	})

	return Result{Outcome: OutcomeCreated, ValidatedIP: candidate.String(), RuleName: ruleName}, nil
}

// record 补全公共字段后写入审计记录，写入失败只告警不中断主流程
func (p *Provisioner) record(req Request, rec models.LogRecord) {
	rec.Timestamp = p.now()
	rec.ServerName = req.ServerName
	rec.Developer = req.Developer
	rec.Environment = req.Environment

	if err := p.audit.Append(rec); err != nil {
		log.Warn("审计记录写入失败", "error", err)
	}
}

// RuleName 根据开发者和地址生成规则名：allow_{developer}_{a_b_c_d_p}
// 白名单分组名只允许字母、数字和下划线
func RuleName(developer string, addr ipaddr.IPCidr) string {
	ipPart := strings.NewReplacer(".", "_", "/", "_").Replace(addr.String())
	return fmt.Sprintf("allow_%s_%s", developer, ipPart)
}
