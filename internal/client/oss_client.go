package client

import (
	"fmt"
	"os"
	"path"

	"aliyun-rds-ip-whitelist/internal/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSClient 阿里云OSS客户端，负责审计日志文件的上传
type OSSClient struct {
	config *config.OSSConfig
	bucket *oss.Bucket
}

// NewOSSClient 创建新的OSS客户端
func NewOSSClient(cfg *config.OSSConfig) (*OSSClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("未配置OSS bucket")
	}

	accessKeyId, accessKeySecret := resolveOSSCredentials(&cfg.AliyunConfig)
	if accessKeyId == "" || accessKeySecret == "" {
		return nil, fmt.Errorf("未找到OSS访问凭证")
	}

	endpoint := fmt.Sprintf("https://oss-%s.aliyuncs.com", cfg.Region)

	ossClient, err := oss.New(endpoint, accessKeyId, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("创建OSS客户端失败: %w", err)
	}

	bucket, err := ossClient.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("获取OSS bucket失败: %w", err)
	}

	return &OSSClient{
		config: cfg,
		bucket: bucket,
	}, nil
}

// resolveOSSCredentials 解析OSS访问凭证
// 优先级：配置文件 -> OSS专用环境变量 -> 标准环境变量
func resolveOSSCredentials(cfg *config.AliyunConfig) (string, string) {
	if cfg.AccessKeyId != "" && cfg.AccessKeySecret != "" {
		return cfg.AccessKeyId, cfg.AccessKeySecret
	}

	if id := os.Getenv("OSS_ALIBABA_CLOUD_ACCESS_KEY_ID"); id != "" {
		return id, os.Getenv("OSS_ALIBABA_CLOUD_ACCESS_KEY_SECRET")
	}

	return os.Getenv("ALIBABA_CLOUD_ACCESS_KEY_ID"), os.Getenv("ALIBABA_CLOUD_ACCESS_KEY_SECRET")
}

// Upload 上传一个本地日志文件，对象名为 {prefix}{文件名}
func (c *OSSClient) Upload(localPath string) (string, error) {
	key := c.config.Prefix + path.Base(localPath)

	if err := c.bucket.PutObjectFromFile(key, localPath); err != nil {
		return "", fmt.Errorf("上传日志文件 %s 失败: %w", localPath, err)
	}

	return key, nil
}

// ListRemote 列出已上传的日志对象名
func (c *OSSClient) ListRemote() ([]string, error) {
	var keys []string
	marker := ""

	for {
		result, err := c.bucket.ListObjects(oss.Prefix(c.config.Prefix), oss.Marker(marker))
		if err != nil {
			return nil, fmt.Errorf("列出OSS对象失败: %w", err)
		}

		for _, object := range result.Objects {
			keys = append(keys, object.Key)
		}

		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}

	return keys, nil
}
