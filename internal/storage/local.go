package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// LocalFileStore 把上传的CV保存到本地目录。
// 后续的文本抽取直接读这个路径，对象存储只做归档。
type LocalFileStore struct {
	dir string
}

// NewLocalFileStore 创建本地文件存储，目录不存在时自动创建
func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("上传目录不能为空")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录 %s 失败: %w", dir, err)
	}
	return &LocalFileStore{dir: dir}, nil
}

// Dir 返回上传目录
func (s *LocalFileStore) Dir() string {
	return s.dir
}

// SaveUpload 保存文件内容，文件名用UUID加原始扩展名避免冲突。
// 返回保存后的完整路径。
func (s *LocalFileStore) SaveUpload(originalFilename string, data []byte) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成文件UUID失败: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	path := filepath.Join(s.dir, id.String()+ext)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入上传文件 %s 失败: %w", path, err)
	}
	return path, nil
}
