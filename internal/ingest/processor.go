// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"claims-platform/internal/pipeline/common"
	"claims-platform/pkg/errors"
	"claims-platform/pkg/log"
)

// Processor 保单文档处理器：按扩展名分派提取器，产出可供证据映射的文档
type Processor struct {
	logger *log.Logger
}

// NewProcessor 创建文档处理器
func NewProcessor(logger *log.Logger) *Processor {
	if logger == nil {
		logger, _ = log.NewLogger(nil)
	}
	return &Processor{logger: logger}
}

// ExtractText 按扩展名提取文本；未知扩展按纯文本处理
func ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return ExtractPDFText(data)
	case "docx", "doc":
		return ExtractDocxText(data)
	case "eml", "msg":
		return ExtractEmailText(data)
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

// Process 提取文本并封装为保单文档
func (p *Processor) Process(filename string, data []byte) (*common.PolicyDocument, error) {
	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, fmt.Errorf("处理文档 %s failed: %w", filename, err)
	}
	if text == "" {
		return nil, errors.Wrapf(errors.ErrEmptyDocument, "文档 %s", filename)
	}

	doc := &common.PolicyDocument{
		ID:      uuid.New().String(),
		Content: text,
		Source:  filename,
		Metadata: map[string]interface{}{
			"format": strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")),
			"bytes":  len(data),
		},
		CreatedAt: time.Now(),
	}
	p.logger.Info("policy document processed", "source", filename, "chars", len(text))
	return doc, nil
}
