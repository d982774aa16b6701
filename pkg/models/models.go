package models

import (
	"time"
)

// RuleStatus 审计记录的最终状态
type RuleStatus string

const (
	StatusSuccess       RuleStatus = "Success"
	StatusAlreadyExists RuleStatus = "AlreadyExists"
	StatusFailed        RuleStatus = "Failed"
)

// FirewallRule RDS白名单中的一条规则
// StartIP和EndIP始终相同：CIDR不会被展开为地址区间
type FirewallRule struct {
	Name    string `json:"name"`
	StartIP string `json:"start_ip"`
	EndIP   string `json:"end_ip"`
}

// LogRecord 单次放行操作的审计记录
type LogRecord struct {
	Timestamp   time.Time  `json:"timestamp"`
	ServerName  string     `json:"server_name"`
	ValidatedIP string     `json:"validated_ip"`
	RuleName    string     `json:"rule_name"`
	Developer   string     `json:"developer"`
	Environment string     `json:"environment"`
	Status      RuleStatus `json:"status"`
}

// UploadTask 日志上传任务
type UploadTask struct {
	TaskID        string    `json:"task_id"`
	Status        string    `json:"status"` // pending, running, completed, failed
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time,omitempty"`
	UploadedFiles []string  `json:"uploaded_files"`
	ErrorMsg      string    `json:"error_msg,omitempty"`
}
