// Copyright 2026 fanjia1024
// Kubernetes secret store（读取 pod 内挂载的 secret 文件）

package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// K8sConfig Kubernetes 配置
type K8sConfig struct {
	// ServiceAccountPath service account 挂载路径
	// 默认: /var/run/secrets/kubernetes.io/serviceaccount
	ServiceAccountPath string `yaml:"service_account_path"`

	// Namespace pod 所在 namespace
	Namespace string `yaml:"namespace"`

	// SecretsPath 额外 secret 挂载路径，默认 /etc/secrets
	SecretsPath string `yaml:"secrets_path"`
}

type k8sStore struct {
	serviceAccountPath string
	secretsPath        string
	namespace          string

	mu    sync.RWMutex
	cache map[string]string
}

// NewK8sStore 创建 Kubernetes secret store
// 非 K8s 环境（service account 路径不存在）直接报错
func NewK8sStore(config K8sConfig) (Store, error) {
	saPath := config.ServiceAccountPath
	if saPath == "" {
		saPath = "/var/run/secrets/kubernetes.io/serviceaccount"
	}
	if _, err := os.Stat(saPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("kubernetes service account path not found: %s (not running in Kubernetes?)", saPath)
	}

	secretsPath := config.SecretsPath
	if secretsPath == "" {
		secretsPath = "/etc/secrets"
	}
	namespace := config.Namespace
	if namespace == "" {
		namespace = "default"
	}

	return &k8sStore{
		serviceAccountPath: saPath,
		secretsPath:        secretsPath,
		namespace:          namespace,
		cache:              make(map[string]string),
	}, nil
}

// Get 依次查找：缓存 → service account 目录（仅 token/ca.crt/namespace）→ 挂载目录 → namespace 标准路径
func (k *k8sStore) Get(ctx context.Context, key string) (string, error) {
	k.mu.RLock()
	if val, ok := k.cache[key]; ok {
		k.mu.RUnlock()
		return val, nil
	}
	k.mu.RUnlock()

	candidates := []string{
		filepath.Join(k.secretsPath, key),
		fmt.Sprintf("/run/secrets/kubernetes.io/%s/%s", k.namespace, key),
	}
	// service account 目录只存放固定文件，避免任意 key 误读 token
	switch key {
	case "token", "ca.crt", "namespace":
		candidates = append([]string{filepath.Join(k.serviceAccountPath, key)}, candidates...)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		value := string(data)
		k.mu.Lock()
		k.cache[key] = value
		k.mu.Unlock()
		return value, nil
	}

	return "", fmt.Errorf("secret not found: %s", key)
}

// Set 仅写入本地缓存；pod 内挂载的 secret 是只读的
func (k *k8sStore) Set(ctx context.Context, key string, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cache[key] = value
	return nil
}

func (k *k8sStore) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.cache, key)
	return nil
}

// List 合并 service account 目录与挂载目录下的文件名，去重
func (k *k8sStore) List(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string

	for _, dir := range []string{k.serviceAccountPath, k.secretsPath} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			key := e.Name()
			if prefix != "" && !strings.HasPrefix(key, prefix) {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	return keys, nil
}
