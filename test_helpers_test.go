package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliOutput 捕获 run() 写向 stdOut/stdErr 的内容，测试结束后恢复原 Writer。
type cliOutput struct {
	out bytes.Buffer
	err bytes.Buffer
}

func captureCLI(t *testing.T) *cliOutput {
	t.Helper()
	c := &cliOutput{}
	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = &c.out, &c.err
	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
	return c
}

func (c *cliOutput) Stdout() string { return c.out.String() }

func (c *cliOutput) Stderr() string { return c.err.String() }

// configFixture 返回 internal/config/testdata 下的样例配置；go test 以包目录（仓库根）为工作目录。
func configFixture(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("internal", "config", "testdata", name))
	if err != nil {
		t.Fatalf("解析样例配置路径失败: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("样例配置 %s 不存在: %v", name, err)
	}
	return path
}

// writeConfigFile 把 TOML 内容写入临时目录并返回路径。
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}
