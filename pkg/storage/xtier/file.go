package xtier

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	fileExt         = ".memo"
	tempPrefix      = ".tmp-"
	tempSuffix      = fileExt + ".tmp"
	defaultTempAge  = 10 * time.Minute
	defaultDirPerm  = 0o750
	defaultFilePerm = 0o600

	// 文件头：8 字节过期时间（UnixNano）+ 4 字节键长度
	fileHeaderSize = 12
)

// FileOption 文件层选项
type FileOption func(*File)

// WithFileName 设置层名称，默认 "file"
func WithFileName(name string) FileOption {
	return func(f *File) {
		if name != "" {
			f.name = name
		}
	}
}

// WithFileClock 设置时间源，默认 time.Now
func WithFileClock(now func() time.Time) FileOption {
	return func(f *File) {
		if now != nil {
			f.now = now
		}
	}
}

// File 每个键一个文件的本地磁盘层。
//
// 文件名为传入键的 xxhash64，文件内保存传入的键，读取时比对，
// 两个键的文件名相同时按未命中处理。File 只看得到调用方给出的键：
// 引擎传入的是参数摘要加桶编号，摘要本身的冲突不在这里检测。
// 写入先写临时文件再 rename，读者不会看到写了一半的内容；
// 进程在写入中途退出留下的临时文件由 Purge 和 Clear 清理。
type File struct {
	dir  string
	name string
	now  func() time.Time
}

// NewFile 创建文件层，目录不存在时自动创建
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrEmptyDir
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("%w: file mkdir %s: %w", ErrBackendUnavailable, dir, err)
	}

	f := &File{dir: dir, name: "file", now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Name 返回层名称
func (f *File) Name() string { return f.name }

// Dir 返回存储目录
func (f *File) Dir() string { return f.dir }

func (f *File) path(key string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%016x%s", xxhash.Sum64String(key), fileExt))
}

// Get 读取 key，文件不存在、已过期、损坏或键不一致时返回未命中
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	p := f.path(key)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, f.unavailable("read", err)
	}

	expiry, storedKey, value, ok := decodeFile(data)
	if !ok || storedKey != key {
		// 损坏或哈希冲突，按未命中处理
		return nil, false, nil
	}
	if !f.now().Before(time.Unix(0, expiry)) {
		_ = os.Remove(p)
		return nil, false, nil
	}
	return value, true, nil
}

// Set 写入 key，过期时间为当前时间加 ttl；ttl <= 0 时不写入
func (f *File) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data := encodeFile(f.now().Add(ttl).UnixNano(), key, value)

	tmp, err := os.CreateTemp(f.dir, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return f.unavailable("create", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return f.unavailable("write", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return f.unavailable("close", err)
	}
	if err := os.Chmod(tmpName, defaultFilePerm); err != nil {
		_ = os.Remove(tmpName)
		return f.unavailable("chmod", err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return f.unavailable("rename", err)
	}
	return nil
}

// Delete 删除 key 对应的文件，不存在不算错误
func (f *File) Delete(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return f.unavailable("delete", err)
	}
	return nil
}

// Clear 删除目录下所有缓存文件和遗留的临时文件，不影响其他文件
func (f *File) Clear(ctx context.Context) error {
	_, err := f.sweep(ctx, func([]byte) bool { return true })
	return err
}

// Purge 删除已过期的缓存文件和遗留的临时文件，返回删除数量
func (f *File) Purge(ctx context.Context) (int, error) {
	now := f.now().UnixNano()
	return f.sweep(ctx, func(data []byte) bool {
		expiry, _, _, ok := decodeFile(data)
		return !ok || expiry <= now
	})
}

func (f *File) sweep(ctx context.Context, shouldRemove func(data []byte) bool) (int, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, f.unavailable("readdir", err)
	}
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() {
			continue
		}
		p := filepath.Join(f.dir, e.Name())
		if isTempFile(e.Name()) {
			// 正在进行的写入也会产生临时文件，只删除足够旧的
			info, err := e.Info()
			if err != nil || f.now().Sub(info.ModTime()) < defaultTempAge {
				continue
			}
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, f.unavailable("remove", err)
			}
			removed++
			continue
		}
		if filepath.Ext(e.Name()) != fileExt {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if !shouldRemove(data) {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, f.unavailable("remove", err)
		}
		removed++
	}
	return removed, nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}

// Ping 检查目录可访问
func (f *File) Ping(context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return f.unavailable("stat", err)
	}
	if !info.IsDir() {
		return f.unavailable("stat", fmt.Errorf("%s is not a directory", f.dir))
	}
	return nil
}

func (f *File) unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrBackendUnavailable, f.name, op, err)
}

func encodeFile(expiry int64, key string, value []byte) []byte {
	buf := make([]byte, fileHeaderSize+len(key)+len(value))
	binary.BigEndian.PutUint64(buf[0:8], uint64(expiry))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(key)))
	copy(buf[fileHeaderSize:], key)
	copy(buf[fileHeaderSize+len(key):], value)
	return buf
}

func decodeFile(data []byte) (expiry int64, key string, value []byte, ok bool) {
	if len(data) < fileHeaderSize {
		return 0, "", nil, false
	}
	expiry = int64(binary.BigEndian.Uint64(data[0:8]))
	klen := int(binary.BigEndian.Uint32(data[8:12]))
	if klen > len(data)-fileHeaderSize {
		return 0, "", nil, false
	}
	key = string(data[fileHeaderSize : fileHeaderSize+klen])
	value = data[fileHeaderSize+klen:]
	return expiry, key, value, true
}

var (
	_ Backend = (*File)(nil)
	_ Pinger  = (*File)(nil)
)
