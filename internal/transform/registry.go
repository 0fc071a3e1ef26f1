package transform

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// OperationMetadata 描述一个已注册的变换操作，供解析器与诊断接口使用。
type OperationMetadata struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Params      []string `json:"params"`
	Idempotent  bool     `json:"idempotent"`
}

var globalRegistry = newRegistry()

type registry struct {
	mu         sync.RWMutex
	operations map[string]OperationMetadata
	params     map[string]string
}

func newRegistry() *registry {
	return &registry{
		operations: make(map[string]OperationMetadata),
		params:     make(map[string]string),
	}
}

// Register 将操作元数据加入全局注册表，重复键或重复参数名会返回错误。
func Register(meta OperationMetadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic，适合 init() 中调用。
func MustRegister(meta OperationMetadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的操作元数据。
func Resolve(key string) (OperationMetadata, bool) {
	return globalRegistry.resolve(key)
}

// List 返回按键排序的操作元数据列表。
func List() []OperationMetadata {
	return globalRegistry.list()
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(meta OperationMetadata) error {
	key := r.normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("operation key is required")
	}
	if len(meta.Params) == 0 {
		return fmt.Errorf("operation %s declares no parameters", key)
	}
	meta.Key = key

	params := make([]string, len(meta.Params))
	for i, param := range meta.Params {
		params[i] = r.normalizeKey(param)
	}
	meta.Params = params

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.operations[key]; exists {
		return fmt.Errorf("operation %s already registered", key)
	}
	for _, param := range params {
		if owner, taken := r.params[param]; taken {
			return fmt.Errorf("parameter %s already owned by operation %s", param, owner)
		}
	}
	r.operations[key] = meta
	for _, param := range params {
		r.params[param] = key
	}
	return nil
}

func (r *registry) resolve(key string) (OperationMetadata, bool) {
	if key == "" {
		return OperationMetadata{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.operations[r.normalizeKey(key)]
	return meta, ok
}

// owner 返回声明该查询参数的操作键。
func (r *registry) owner(param string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.params[param]
	return key, ok
}

func (r *registry) list() []OperationMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.operations) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.operations))
	for key := range r.operations {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]OperationMetadata, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.operations[key])
	}
	return result
}
