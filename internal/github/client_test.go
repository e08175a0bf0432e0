package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"issuebrowser/internal/models"
	"issuebrowser/internal/query"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithBaseURL(server.URL), WithRetries(2, time.Millisecond)}, opts...)
	client, err := NewClient("acme/research", "test-token", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSplitRepository(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"valid", "acme/research", "acme", "research", false},
		{"surrounding spaces", " acme/research ", "acme", "research", false},
		{"missing slash", "acme", "", "", true},
		{"empty owner", "/research", "", "", true},
		{"empty repo", "acme/", "", "", true},
		{"too many parts", "acme/research/extra", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := SplitRepository(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRepository) {
					t.Fatalf("err = %v, want ErrInvalidRepository", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("got %q/%q, want %q/%q", owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestNewClient_InvalidRepository(t *testing.T) {
	if _, err := NewClient("nope", ""); !errors.Is(err, ErrInvalidRepository) {
		t.Errorf("err = %v, want ErrInvalidRepository", err)
	}
}

func TestListLabels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/research/labels" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want 100", got)
		}
		_ = json.NewEncoder(w).Encode([]models.Label{{Name: "Type: Bug"}, {Name: "wontfix"}})
	})

	labels, err := client.ListLabels(context.Background())
	if err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if len(labels) != 2 || labels[0].Name != "Type: Bug" {
		t.Errorf("labels = %+v", labels)
	}
}

func TestSearchIssues(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/issues" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("q"); got != `bug repo:acme/research label:"Type: Bug" sort:updated` {
			t.Errorf("q = %q", got)
		}
		if q.Get("sort") != "updated" || q.Get("order") != "desc" {
			t.Errorf("sort/order = %q/%q", q.Get("sort"), q.Get("order"))
		}
		if q.Get("per_page") != "50" {
			t.Errorf("per_page = %q, want 50", q.Get("per_page"))
		}
		_, _ = w.Write([]byte(`{"total_count":1,"items":[{"id":7,"number":3,"title":"Crash","user":{"login":"octo","avatar_url":"https://a/1"},"created_at":"2024-03-04T10:00:00Z","updated_at":"2024-03-05T10:00:00Z","body":"# hi","labels":[{"name":"Type: Bug"}]}]}`))
	}, WithPageSize(50))

	result, err := client.SearchIssues(context.Background(), query.Params{
		Q:     `bug repo:acme/research label:"Type: Bug" sort:updated`,
		Sort:  models.SortUpdated,
		Order: models.OrderDesc,
	})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if result.TotalCount != 1 || len(result.Items) != 1 {
		t.Fatalf("result = %+v", result)
	}
	issue := result.Items[0]
	if issue.ID != 7 || issue.User.Login != "octo" || issue.Labels[0].Name != "Type: Bug" {
		t.Errorf("issue = %+v", issue)
	}
	if issue.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}
}

func TestSearchIssues_EmptyItemsNotNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_count":0}`))
	})

	result, err := client.SearchIssues(context.Background(), query.Params{Q: "repo:acme/research"})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if result.Items == nil {
		t.Error("Items is nil, want empty slice")
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := client.ListLabels(context.Background()); err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := client.ListLabels(context.Background()); err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed","documentation_url":"https://docs.github.com"}`))
	})

	_, err := client.SearchIssues(context.Background(), query.Params{Q: "repo:acme/research"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Message != "Validation Failed" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ListLabels(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want 503 APIError", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.ListLabels(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := NewClient("acme/research", "", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.ListLabels(context.Background()); err != nil {
		t.Fatalf("ListLabels: %v", err)
	}
}

func TestRepository(t *testing.T) {
	client, err := NewClient("acme/research", "")
	if err != nil {
		t.Fatal(err)
	}
	if client.Repository() != "acme/research" {
		t.Errorf("Repository() = %q", client.Repository())
	}
}
