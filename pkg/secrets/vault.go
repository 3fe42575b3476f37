// Copyright 2026 fanjia1024
// HashiCorp Vault secret store

package secrets

import (
	"context"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig Vault 配置
type VaultConfig struct {
	Address    string `yaml:"address"`     // Vault 服务地址，如 http://vault:8200
	Token      string `yaml:"token"`       // Vault token
	PathPrefix string `yaml:"path_prefix"` // secret 路径前缀，默认 "secret"
}

type vaultStore struct {
	client     *vault.Client
	pathPrefix string
}

// NewVaultStore 创建 Vault secret store，启动时校验连通性
func NewVaultStore(config VaultConfig) (Store, error) {
	if config.Address == "" {
		config.Address = "http://localhost:8200"
	}

	cfg := vault.DefaultConfig()
	cfg.Address = config.Address

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建 vault 客户端failed: %w", err)
	}
	if config.Token != "" {
		client.SetToken(config.Token)
	}
	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("连接 vault failed: %w", err)
	}

	prefix := "secret"
	if config.PathPrefix != "" {
		prefix = config.PathPrefix
	}
	return &vaultStore{client: client, pathPrefix: prefix}, nil
}

// Get 读取 <prefix>/<key> 下的 "value" 字段；缺失时取首个字符串字段
func (v *vaultStore) Get(ctx context.Context, key string) (string, error) {
	secret, err := v.client.Logical().ReadWithContext(ctx, v.buildPath(key))
	if err != nil {
		return "", fmt.Errorf("读取 vault secret failed: %w", err)
	}
	if secret == nil {
		return "", fmt.Errorf("secret not found: %s", key)
	}

	if value, ok := secret.Data["value"].(string); ok {
		return value, nil
	}
	for _, val := range secret.Data {
		if str, ok := val.(string); ok {
			return str, nil
		}
	}
	return "", fmt.Errorf("secret value not found: %s", key)
}

func (v *vaultStore) Set(ctx context.Context, key string, value string) error {
	data := map[string]interface{}{"value": value}
	if _, err := v.client.Logical().WriteWithContext(ctx, v.buildPath(key), data); err != nil {
		return fmt.Errorf("写入 vault secret failed: %w", err)
	}
	return nil
}

func (v *vaultStore) Delete(ctx context.Context, key string) error {
	if _, err := v.client.Logical().DeleteWithContext(ctx, v.buildPath(key)); err != nil {
		return fmt.Errorf("删除 vault secret failed: %w", err)
	}
	return nil
}

func (v *vaultStore) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath := v.pathPrefix
	if prefix != "" {
		searchPath = fmt.Sprintf("%s/metadata/%s", v.pathPrefix, prefix)
	}

	secret, err := v.client.Logical().ListWithContext(ctx, searchPath)
	if err != nil {
		return nil, fmt.Errorf("列举 vault secrets failed: %w", err)
	}
	if secret == nil {
		return nil, nil
	}

	raw, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}
	var result []string
	for _, k := range raw {
		if str, ok := k.(string); ok {
			if prefix != "" && !strings.HasPrefix(str, prefix) {
				str = prefix + "/" + str
			}
			result = append(result, str)
		}
	}
	return result, nil
}

func (v *vaultStore) buildPath(key string) string {
	return v.pathPrefix + "/" + key
}
