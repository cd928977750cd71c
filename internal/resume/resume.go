package resume

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"

	"jobhunt/internal/model"

	"github.com/phuslu/log"
)

// Provider 提供写入提示词的候选人简历文本。
type Provider interface {
	Text() string
}

// Static 是固定文本的简历，主要用于测试。
type Static string

func (s Static) Text() string {
	if s == "" {
		return model.NotSpecified
	}
	return string(s)
}

// File 从 JSON 文件读取简历并格式化缓存；文件缺失或非法时返回 "Not specified"。
type File struct {
	path   string
	logger *log.Logger
	once   sync.Once
	text   string
}

// NewFile 创建基于文件的简历提供者。
func NewFile(path string, logger *log.Logger) *File {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &File{path: path, logger: logger}
}

func (f *File) Text() string {
	f.once.Do(func() {
		f.text = model.NotSpecified
		data, err := os.ReadFile(f.path)
		if err != nil {
			f.logger.Warn().Str("path", f.path).Err(err).Msg("resume not loaded")
			return
		}
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			f.logger.Warn().Str("path", f.path).Err(err).Msg("resume is not valid json")
			return
		}
		f.text = out.String()
	})
	return f.text
}
