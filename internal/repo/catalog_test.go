package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"
)

func catalogResponse(t *testing.T) *http.Response {
	t.Helper()
	payload := map[string]any{
		"resources": []map[string]any{
			{"id": "i-1", "name": "web", "type": "ec2", "region": "us-east-1", "status": "running", "account_id": "acct-1"},
			{"id": "db-1", "name": "orders", "type": "rds", "region": "us-east-1", "status": "available", "account_id": "acct-1"},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func TestListResources(t *testing.T) {
	client := NewCatalogClient("https://example.com", "/api/resources", time.Second, nil, 0)
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/resources" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["organization_id"] != "org-1" || body["account_id"] != "acct-1" {
			t.Fatalf("unexpected scoping payload: %v", body)
		}
		return catalogResponse(t), nil
	}))

	resources, err := client.ListResources(context.Background(), "org-1", "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resources) != 2 || resources[0].ID != "i-1" || resources[1].Type != "rds" {
		t.Fatalf("unexpected resources: %+v", resources)
	}
}

func TestListResourcesCachesResults(t *testing.T) {
	hits := 0
	cacheStub := newStubCache()
	client := NewCatalogClient("https://example.com", "/api/resources", time.Second, cacheStub, time.Minute)
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		hits++
		return catalogResponse(t), nil
	}))

	ctx := context.Background()
	if _, err := client.ListResources(ctx, "org-1", "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one upstream request, got %d", hits)
	}

	cached, err := client.ListResources(ctx, "org-1", "acct-1")
	if err != nil {
		t.Fatalf("unexpected cached error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("cache miss triggered network call; hits=%d", hits)
	}
	if len(cached) != 2 || cached[1].ID != "db-1" {
		t.Fatalf("unexpected cached payload: %+v", cached)
	}
}

func TestListResourcesErrorStatus(t *testing.T) {
	client := NewCatalogClient("https://example.com", "/api/resources", time.Second, nil, 0)
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Status:     "500 Internal Server Error",
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}))

	if _, err := client.ListResources(context.Background(), "org-1", ""); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
