package firewall

import (
	"context"
	"testing"
	"time"

	"aliyun-rds-ip-whitelist/internal/ipaddr"
	"aliyun-rds-ip-whitelist/pkg/models"

	"github.com/stretchr/testify/require"
)

// fakeRuleService 内存中的规则服务假实现
type fakeRuleService struct {
	rules       []models.FirewallRule
	listErr     error
	createErr   error
	createCalls int
}

func (f *fakeRuleService) List(_ context.Context, _, _ string) ([]models.FirewallRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rules, nil
}

func (f *fakeRuleService) Create(_ context.Context, _, _ string, rule models.FirewallRule) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.rules = append(f.rules, rule)
	return nil
}

// fakeAudit 收集审计记录
type fakeAudit struct {
	records []models.LogRecord
}

func (f *fakeAudit) Append(rec models.LogRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func newTestProvisioner(svc *fakeRuleService, audit *fakeAudit) *Provisioner {
	p := NewProvisioner(svc, audit)
	p.now = func() time.Time { return time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC) }
	return p
}

func testRequest(rawIP string) Request {
	return Request{
		Environment:   "dev",
		ResourceGroup: "rg-default",
		ServerName:    "rm-test01",
		RawIP:         rawIP,
		Developer:     "zhang",
	}
}

func TestFindDuplicate(t *testing.T) {
	rules := []models.FirewallRule{
		{Name: "allow_li_10_0_0_1_32", StartIP: "10.0.0.1", EndIP: "10.0.0.1"},
		{Name: "allow_li_10_0_1_0_24", StartIP: "10.0.1.0", EndIP: "10.0.1.0"},
	}

	name, found := FindDuplicate("10.0.0.1", "10.0.0.1", rules)
	require.True(t, found)
	require.Equal(t, "allow_li_10_0_0_1_32", name)

	_, found = FindDuplicate("10.0.0.2", "10.0.0.2", rules)
	require.False(t, found)

	// /24候选不匹配其范围内已存在的/32规则，按字面值比较
	_, found = FindDuplicate("10.0.0.0", "10.0.0.0", rules)
	require.False(t, found)
}

func TestRunCreated(t *testing.T) {
	svc := &fakeRuleService{}
	audit := &fakeAudit{}
	p := newTestProvisioner(svc, audit)

	res, err := p.Run(context.Background(), testRequest("192.168.1.1"))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, res.Outcome)
	require.Equal(t, "192.168.1.1/32", res.ValidatedIP)
	require.Equal(t, "allow_zhang_192_168_1_1_32", res.RuleName)
	require.Equal(t, 1, svc.createCalls)

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	require.Equal(t, models.StatusSuccess, rec.Status)
	require.Equal(t, "rm-test01", rec.ServerName)
	require.Equal(t, "zhang", rec.Developer)
	require.Equal(t, "dev", rec.Environment)
}

func TestRunIdempotent(t *testing.T) {
	svc := &fakeRuleService{}
	audit := &fakeAudit{}
	p := newTestProvisioner(svc, audit)

	res, err := p.Run(context.Background(), testRequest("192.168.1.1"))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, res.Outcome)

	// 第二次运行命中已有规则，不再调用Create
	res, err = p.Run(context.Background(), testRequest("192.168.1.1"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyExists, res.Outcome)
	require.Equal(t, "allow_zhang_192_168_1_1_32", res.RuleName)
	require.Equal(t, 1, svc.createCalls)

	require.Len(t, audit.records, 2)
	require.Equal(t, models.StatusAlreadyExists, audit.records[1].Status)
}

func TestRunRejected(t *testing.T) {
	svc := &fakeRuleService{}
	audit := &fakeAudit{}
	p := newTestProvisioner(svc, audit)

	res, err := p.Run(context.Background(), testRequest("256.1.1.1"))
	require.Error(t, err)
	require.ErrorIs(t, err, ipaddr.ErrOctetOutOfRange)
	require.Equal(t, OutcomeRejected, res.Outcome)
	require.Equal(t, 0, svc.createCalls)

	// 校验失败也要留下Failed审计记录
	require.Len(t, audit.records, 1)
	require.Equal(t, models.StatusFailed, audit.records[0].Status)
}

func TestRunCreationFailed(t *testing.T) {
	svc := &fakeRuleService{createErr: ErrServiceUnavailable}
	audit := &fakeAudit{}
	p := newTestProvisioner(svc, audit)

	res, err := p.Run(context.Background(), testRequest("10.1.2.3"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrServiceUnavailable)
	require.Equal(t, OutcomeCreationFailed, res.Outcome)

	require.Len(t, audit.records, 1)
	require.Equal(t, models.StatusFailed, audit.records[0].Status)
}

func TestRunListFailed(t *testing.T) {
	svc := &fakeRuleService{listErr: ErrServiceUnavailable}
	audit := &fakeAudit{}
	p := newTestProvisioner(svc, audit)

	_, err := p.Run(context.Background(), testRequest("10.1.2.3"))
	require.ErrorIs(t, err, ErrServiceUnavailable)
	require.Equal(t, 0, svc.createCalls)
}

func TestRuleName(t *testing.T) {
	addr, err := ipaddr.Parse("10.0.0.0/24")
	require.NoError(t, err)
	require.Equal(t, "allow_wang_10_0_0_0_24", RuleName("wang", addr))
}
