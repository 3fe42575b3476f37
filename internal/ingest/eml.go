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
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// ExtractEmailText 从 .eml 提取主题与正文；
// multipart 邮件只取 text/plain 部分
func ExtractEmailText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("解析邮件failed: %w", err)
	}

	var buf strings.Builder
	if subject := msg.Header.Get("Subject"); subject != "" {
		buf.WriteString("Subject: ")
		buf.WriteString(subject)
		buf.WriteString("\n\n")
	}

	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		body, err := extractPlainParts(msg.Body, params["boundary"])
		if err != nil {
			return "", err
		}
		buf.WriteString(body)
	} else {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", fmt.Errorf("读取邮件正文failed: %w", err)
		}
		buf.Write(body)
	}

	return strings.TrimSpace(buf.String()), nil
}

// extractPlainParts 拼接 multipart 中的 text/plain 片段
func extractPlainParts(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var buf strings.Builder
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return buf.String(), fmt.Errorf("解析邮件分段failed: %w", err)
		}
		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if partType == "" || partType == "text/plain" {
			data, err := io.ReadAll(part)
			if err != nil {
				return buf.String(), err
			}
			buf.Write(data)
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}
