package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<StoragePath>/<tenant>/<originPath>            # 原图
//	<StoragePath>/<tenant>/<stem>-<sha1>.<ext>     # 衍生图
//
// 条目一经 rename 即不再修改，文件的 ModTime/Size 由文件系统提供。
type Store interface {
	// Stat 探测条目是否完整可读（stat + 打开），不存在返回 ErrNotFound，其余错误原样返回。
	Stat(ctx context.Context, locator Locator) (*Entry, error)

	// Get 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 将正文写入缓存。实现需通过临时文件 + rename 保证写入原子性，并在失败时清理临时文件。
	// 读取 body 失败时返回 *SourceError，便于调用方区分上游与磁盘故障；
	// 路径被已有条目占用时返回包装了 ErrPathConflict 的错误。
	Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error)

	// Root 返回缓存根目录的绝对路径。
	Root() string
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Locator 唯一定位一个缓存条目（租户 + 相对键），键为 URL 路径风格。
type Locator struct {
	Tenant string
	Key    string
}

func (l Locator) String() string {
	return l.Tenant + "/" + l.Key
}

// Entry 表示一次缓存命中结果，包含绝对文件路径及文件信息。
type Entry struct {
	Locator   Locator   `json:"locator"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader，便于上层直接将 Body 流式返回。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// ErrPathConflict 表示键对应的路径被已有条目占用（文件挡住了目录，或目录挡住了文件），
// 例如 a.jpg 已缓存时写入 a.jpg/b.jpg。
var ErrPathConflict = errors.New("cache path conflicts with an existing entry")

// SourceError 表示 Put 过程中读取输入流失败（而非磁盘写入失败）。
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read source: %v", e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
