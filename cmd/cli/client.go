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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("CLAIMS_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	c := resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(30 * time.Second)
	if token := os.Getenv("CLAIMS_API_TOKEN"); token != "" {
		c.SetAuthToken(token)
	}
	return c
}

func getHealth() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /health: %s", resp.String())
	}
	return out, nil
}

func postDecide(query, sessionID, userID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"query": query, "session_id": sessionID, "user_id": userID}).
		SetResult(&out).
		Post("/api/v1/claims/decide")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/v1/claims/decide: %s", resp.String())
	}
	return out, nil
}

func postAnalyze(query string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"query": query}).
		SetResult(&out).
		Post("/api/v1/claims/query")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/v1/claims/query: %s", resp.String())
	}
	return out, nil
}

func uploadDocument(path string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetFile("file", path).
		SetResult(&out).
		Post("/api/v1/documents")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST /api/v1/documents (%s): %s", filepath.Base(path), resp.String())
	}
	return out, nil
}

func listDocuments() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/v1/documents")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/v1/documents: %s", resp.String())
	}
	return out, nil
}

func listAuditEntries(sessionID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	req := newClient().R().SetResult(&out)
	if sessionID != "" {
		req.SetQueryParam("session_id", sessionID)
	}
	resp, err := req.Get("/api/v1/audit/entries")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/v1/audit/entries: %s", resp.String())
	}
	return out, nil
}

func exportAudit(format string) (string, error) {
	resp, err := newClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"format": format}).
		Post("/api/v1/audit/export")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("POST /api/v1/audit/export: %s", resp.String())
	}
	return resp.String(), nil
}

func cacheStats() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/v1/cache/stats")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/v1/cache/stats: %s", resp.String())
	}
	return out, nil
}

func prettyJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
