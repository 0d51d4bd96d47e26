// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeQuizResult(t *testing.T) {
	raw := []byte(`{"question":"1+1?","options":{"B":"2","A":"1","D":"4","C":"3"},"correct_answer":"C","explanation":"because","source":"arith"}`)

	var got map[string]interface{}
	if err := json.Unmarshal(NormalizeQuizResult(raw), &got); err != nil {
		t.Fatal(err)
	}

	wantOptions := []interface{}{"1", "2", "3", "4"}
	if !reflect.DeepEqual(got["options"], wantOptions) {
		t.Errorf("options = %v, want %v", got["options"], wantOptions)
	}
	if got["correct_answer"] != "3" {
		t.Errorf("correct_answer = %v, want \"3\"", got["correct_answer"])
	}
	if got["question"] != "1+1?" || got["explanation"] != "because" || got["source"] != "arith" {
		t.Errorf("other fields changed: %v", got)
	}
}

func TestNormalizeQuizResultPassthrough(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"non-quiz object", `{"summary":"terms","items":[1,2]}`},
		{"options already array", `{"question":"q","options":["a","b"],"correct_answer":"a"}`},
		{"not json", `plain text`},
		{"top-level array", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuizResult([]byte(tt.raw))
			if string(got) != tt.raw {
				t.Errorf("NormalizeQuizResult(%q) = %q, want unchanged", tt.raw, got)
			}
		})
	}
}

func TestNormalizeQuizResultUnwrapsEnvelope(t *testing.T) {
	raw := []byte(`{"success":true,"result":{"question":"1+1?","options":{"B":"2","A":"1"},"correct_answer":"B","topic":"arith"}}`)

	var got map[string]interface{}
	if err := json.Unmarshal(NormalizeQuizResult(raw), &got); err != nil {
		t.Fatal(err)
	}

	if got["success"] != true {
		t.Errorf("success = %v, want true", got["success"])
	}
	quiz, ok := got["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("result missing from %v", got)
	}
	if !reflect.DeepEqual(quiz["options"], []interface{}{"1", "2"}) {
		t.Errorf("options = %v, want [1 2]", quiz["options"])
	}
	if quiz["correct_answer"] != "2" {
		t.Errorf("correct_answer = %v, want \"2\"", quiz["correct_answer"])
	}
	if quiz["topic"] != "arith" {
		t.Errorf("topic = %v, want \"arith\"", quiz["topic"])
	}
}

func TestNormalizeQuizResultAnswerNotAKey(t *testing.T) {
	raw := []byte(`{"options":{"A":"1","B":"2"},"correct_answer":"2"}`)

	var got map[string]interface{}
	if err := json.Unmarshal(NormalizeQuizResult(raw), &got); err != nil {
		t.Fatal(err)
	}
	// Already resolved upstream; left alone.
	if got["correct_answer"] != "2" {
		t.Errorf("correct_answer = %v, want \"2\"", got["correct_answer"])
	}
}

func TestToolsProxyForwarding(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode upstream body: %v", err)
		}
		if req["tool"] != "generate_mcq" {
			t.Errorf("tool = %v", req["tool"])
		}
		w.Write([]byte(`{"question":"q","options":{"B":"two","A":"one"},"correct_answer":"A"}`))
	}))
	defer upstream.Close()

	s := NewServer(0, nil).WithToolsProxy(NewToolsProxy(upstream.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/tools",
		strings.NewReader(`{"tool":"generate_mcq","args":{"topic":"math"}}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(resp["options"], []interface{}{"one", "two"}) {
		t.Errorf("options = %v", resp["options"])
	}
	if resp["correct_answer"] != "one" {
		t.Errorf("correct_answer = %v", resp["correct_answer"])
	}
}

func TestToolsProxyUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("item bank offline"))
	}))
	defer upstream.Close()

	s := NewServer(0, nil).WithToolsProxy(NewToolsProxy(upstream.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/tools", strings.NewReader(`{"tool":"x","args":{}}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}

	// The upstream status and body come back for diagnostics.
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] == nil || resp["error"] == "" {
		t.Error("error field missing")
	}
	if resp["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("status field = %v, want 500", resp["status"])
	}
	if resp["details"] != "item bank offline" {
		t.Errorf("details = %v, want the upstream body", resp["details"])
	}
}

func TestToolsProxyBadRequest(t *testing.T) {
	s := NewServer(0, nil).WithToolsProxy(NewToolsProxy("http://127.0.0.1:0"))

	tests := []struct {
		name string
		body string
	}{
		{"missing tool", `{"args":{}}`},
		{"malformed", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tools", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
