package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// tempPattern 为写入中的临时文件名，不带图片扩展名，避免被误当作缓存条目。
const tempPattern = ".cache-*"

// NewStore 以 basePath 为根目录构建磁盘缓存，整站复用一份实例。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &fileStore{basePath: abs}, nil
}

// fileStore 不持有任何条目锁：同一键并发写入时各自写临时文件，最后一次 rename 生效。
type fileStore struct {
	basePath string
}

func (s *fileStore) Root() string {
	return s.basePath
}

func (s *fileStore) Stat(ctx context.Context, locator Locator) (*Entry, error) {
	result, err := s.Get(ctx, locator)
	if err != nil {
		return nil, err
	}
	if err := result.Reader.Close(); err != nil {
		return nil, err
	}
	return &result.Entry, nil
}

func (s *fileStore) Get(ctx context.Context, locator Locator) (*ReadResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if isAbsent(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	f, err := os.Open(filePath)
	if err != nil {
		if isAbsent(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entry := Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}

	return &ReadResult{
		Entry:  entry,
		Reader: f,
	}, nil
}

func (s *fileStore) Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error) {
	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		if errors.Is(err, syscall.ENOTDIR) || errors.Is(err, syscall.EEXIST) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPathConflict, locator, err)
		}
		return nil, err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), tempPattern)
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	written, err := copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = time.Now().UTC()
	}
	if err := os.Chtimes(tempName, modTime, modTime); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		if errors.Is(err, syscall.EISDIR) || errors.Is(err, syscall.EEXIST) || errors.Is(err, syscall.ENOTEMPTY) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPathConflict, locator, err)
		}
		return nil, err
	}

	entry := Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: written,
		ModTime:   modTime,
	}
	return &entry, nil
}

// isAbsent 把 ENOTDIR 也视为不存在：a.jpg 是文件时 a.jpg/b.jpg 不可能是条目。
func isAbsent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (s *fileStore) entryPath(locator Locator) (string, error) {
	if locator.Tenant == "" || strings.ContainsAny(locator.Tenant, `/\`) || locator.Tenant == "." || locator.Tenant == ".." {
		return "", fmt.Errorf("invalid tenant %q", locator.Tenant)
	}

	rel := path.Clean("/" + locator.Key)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "", fmt.Errorf("cache key required for tenant %s", locator.Tenant)
	}

	tenantRoot := filepath.Join(s.basePath, locator.Tenant)
	filePath := filepath.Join(tenantRoot, filepath.FromSlash(rel))
	if !strings.HasPrefix(filePath, tenantRoot+string(filepath.Separator)) {
		return "", errors.New("invalid cache path")
	}
	return filePath, nil
}

// copyWithContext 逐块复制并在每块之间检查 ctx；读错误包装为 SourceError。
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, &SourceError{Err: err}
		}
	}
}
