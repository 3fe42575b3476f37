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

package app

import (
	"context"
	"sync"

	"claims-platform/internal/pipeline/common"
	"claims-platform/pkg/errors"
)

// PolicyDocumentInfo 保单文档 DTO，供 API 层使用
type PolicyDocumentInfo struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Format    string `json:"format"`
	Chars     int    `json:"chars"`
	CreatedAt int64  `json:"created_at"`
}

// DocumentService 保单文档门面：API 层仅依赖此接口
type DocumentService interface {
	AddDocument(ctx context.Context, doc *common.PolicyDocument) error
	ListDocuments(ctx context.Context) ([]*PolicyDocumentInfo, error)
	// ActiveDocuments 返回参与证据映射的全部文档
	ActiveDocuments(ctx context.Context) ([]common.PolicyDocument, error)
	GetDocument(ctx context.Context, id string) (*common.PolicyDocument, error)
	DeleteDocument(ctx context.Context, id string) error
}

// documentService 内存实现；文档量以单个保单库为尺度，无需外部存储
type documentService struct {
	mu   sync.RWMutex
	docs map[string]*common.PolicyDocument
	ids  []string
}

// NewDocumentService 创建保单文档门面
func NewDocumentService() DocumentService {
	return &documentService{docs: make(map[string]*common.PolicyDocument)}
}

func (s *documentService) AddDocument(ctx context.Context, doc *common.PolicyDocument) error {
	if doc == nil || doc.ID == "" {
		return errors.ErrInvalidArg
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; !exists {
		s.ids = append(s.ids, doc.ID)
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *documentService) ListDocuments(ctx context.Context) ([]*PolicyDocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*PolicyDocumentInfo, 0, len(s.ids))
	for _, id := range s.ids {
		d := s.docs[id]
		format, _ := d.Metadata["format"].(string)
		out = append(out, &PolicyDocumentInfo{
			ID:        d.ID,
			Source:    d.Source,
			Format:    format,
			Chars:     len(d.Content),
			CreatedAt: d.CreatedAt.Unix(),
		})
	}
	return out, nil
}

func (s *documentService) ActiveDocuments(ctx context.Context) ([]common.PolicyDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.PolicyDocument, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, *s.docs[id])
	}
	return out, nil
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*common.PolicyDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return d, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return errors.ErrNotFound
	}
	delete(s.docs, id)
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}
