package origin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

type diskStore struct {
	root string
}

// NewDisk 以本地目录作为源站，主要用于开发与测试。
func NewDisk(root string) (Store, error) {
	if root == "" {
		return nil, errors.New("origin path required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve origin path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat origin path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("origin path %s is not a directory", abs)
	}
	return &diskStore{root: abs}, nil
}

func (s *diskStore) Kind() string { return "disk" }

func (s *diskStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := strings.TrimPrefix(path.Clean("/"+key), "/")
	if rel == "" {
		return nil, ErrNotFound
	}
	filePath := filepath.Join(s.root, filepath.FromSlash(rel))

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Object{Body: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}
