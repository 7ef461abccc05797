package github_client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

type fakeIssue struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	User  struct {
		Login string `json:"login"`
	} `json:"user"`
}

type fakeComment struct {
	Body string `json:"body"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
}

func issueWith(title, body, author string) fakeIssue {
	issue := fakeIssue{Title: title, Body: body}
	issue.User.Login = author
	return issue
}

func commentBy(author, body string) fakeComment {
	c := fakeComment{Body: body}
	c.User.Login = author
	return c
}

func newGitHubStub(t *testing.T, issue fakeIssue, comments []fakeComment) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/issues/42", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(issue)
	})
	mux.HandleFunc("/repos/octo/demo/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(comments)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestFetchIssueBodyFirstThenComments(t *testing.T) {
	issue := issueWith("Crash on startup", "  the app crashes  ", "reporter")
	comments := []fakeComment{
		commentBy("dev1", "can reproduce"),
		commentBy("dev2", "   "), // whitespace-only, must be skipped
		commentBy("dev3", "fixed in #43"),
	}
	srv, _ := newGitHubStub(t, issue, comments)

	client := NewClient(srv.URL, "", zap.NewNop())
	got, err := client.FetchIssue(context.Background(), "https://github.com/octo/demo/issues/42")
	if err != nil {
		t.Fatalf("FetchIssue failed: %v", err)
	}

	if got.Title != "Crash on startup" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Number != "42" {
		t.Errorf("issue number = %q, want 42", got.Number)
	}
	if len(got.Comments) != 3 {
		t.Fatalf("expected 3 comments (body + 2 non-empty), got %d", len(got.Comments))
	}
	if got.Comments[0].Author != "reporter" || got.Comments[0].Text != "the app crashes" {
		t.Errorf("comment 0 should be the trimmed issue body: %+v", got.Comments[0])
	}
	if got.Comments[1].Author != "dev1" || got.Comments[2].Author != "dev3" {
		t.Errorf("comments out of order: %+v", got.Comments)
	}
}

func TestFetchIssueEmptyBodySkipped(t *testing.T) {
	srv, _ := newGitHubStub(t, issueWith("No body", "   ", "reporter"), []fakeComment{commentBy("dev1", "hello")})

	client := NewClient(srv.URL, "", zap.NewNop())
	got, err := client.FetchIssue(context.Background(), "https://github.com/octo/demo/issues/42")
	if err != nil {
		t.Fatalf("FetchIssue failed: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Author != "dev1" {
		t.Errorf("empty body must not become a comment: %+v", got.Comments)
	}
}

func TestFetchIssueInvalidURLNoNetworkCall(t *testing.T) {
	srv, requests := newGitHubStub(t, issueWith("t", "b", "a"), nil)
	client := NewClient(srv.URL, "", zap.NewNop())

	for _, bad := range []string{
		"https://github.com/octo/demo/pull/42",
		"https://github.com/octo/demo/issues",
		"https://github.com/octo/demo",
		"not a url at all ://",
	} {
		_, err := client.FetchIssue(context.Background(), bad)
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("FetchIssue(%q) error = %v, want ErrInvalidURL", bad, err)
		}
	}
	if requests.Load() != 0 {
		t.Errorf("invalid URLs must not hit the network, saw %d requests", requests.Load())
	}
}

func TestFetchIssueNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", zap.NewNop())
	_, err := client.FetchIssue(context.Background(), "https://github.com/octo/demo/issues/42")
	if !errors.Is(err, ErrIssueNotFound) {
		t.Fatalf("expected ErrIssueNotFound, got %v", err)
	}
}

func TestFetchIssueRetriesAnonymouslyOn401(t *testing.T) {
	var withToken, anonymous atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/issues/42", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			withToken.Add(1)
			http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
			return
		}
		anonymous.Add(1)
		json.NewEncoder(w).Encode(issueWith("Works anyway", "body text", "reporter"))
	})
	mux.HandleFunc("/repos/octo/demo/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]fakeComment{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "ghp_expired", zap.NewNop())
	got, err := client.FetchIssue(context.Background(), "https://github.com/octo/demo/issues/42")
	if err != nil {
		t.Fatalf("FetchIssue should degrade to anonymous access: %v", err)
	}
	if got.Title != "Works anyway" {
		t.Errorf("title = %q", got.Title)
	}
	if withToken.Load() != 1 || anonymous.Load() != 1 {
		t.Errorf("expected exactly one authenticated attempt and one anonymous retry, got %d/%d",
			withToken.Load(), anonymous.Load())
	}
}

func TestFetchIssueCommentsFailureDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/demo/issues/42", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(issueWith("Title", "only the body", "reporter"))
	})
	mux.HandleFunc("/repos/octo/demo/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream hiccup", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", zap.NewNop())
	got, err := client.FetchIssue(context.Background(), "https://github.com/octo/demo/issues/42")
	if err != nil {
		t.Fatalf("comments failure must not fail the fetch: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Text != "only the body" {
		t.Errorf("expected body-only comment list, got %+v", got.Comments)
	}
}

func TestParseIssueURL(t *testing.T) {
	owner, repo, number, err := ParseIssueURL("https://github.com/octo/demo/issues/42")
	if err != nil {
		t.Fatalf("ParseIssueURL failed: %v", err)
	}
	if owner != "octo" || repo != "demo" || number != "42" {
		t.Errorf("parsed %s/%s#%s", owner, repo, number)
	}
}
