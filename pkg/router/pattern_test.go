package router

import (
	"reflect"
	"testing"
)

func TestPatternStatic(t *testing.T) {
	p := NewPathPattern("/todos")
	if _, ok := p.Match("/todos"); !ok {
		t.Error("should match exact path")
	}
	if _, ok := p.Match("/todos/42"); ok {
		t.Error("should not match longer path")
	}
	if _, ok := p.Match("/other"); ok {
		t.Error("should not match different path")
	}
}

func TestPatternRoot(t *testing.T) {
	p := NewPathPattern("/")
	if _, ok := p.Match("/"); !ok {
		t.Error("root pattern should match root path")
	}
	if _, ok := p.Match("/todos"); ok {
		t.Error("root pattern should not match non-root path")
	}
}

func TestPatternParams(t *testing.T) {
	p := NewPathPattern("/users/:userID/posts/:postID")
	params, ok := p.Match("/users/7/posts/42")
	if !ok {
		t.Fatal("should match")
	}
	want := map[string]string{"userID": "7", "postID": "42"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params = %v, want %v", params, want)
	}
}

func TestPatternParamDecoding(t *testing.T) {
	p := NewPathPattern("/search/:term")
	params, ok := p.Match("/search/caf%C3%A9")
	if !ok {
		t.Fatal("should match")
	}
	if params["term"] != "café" {
		t.Errorf("term = %q, want %q", params["term"], "café")
	}
}

func TestPatternWildcard(t *testing.T) {
	p := NewPathPattern("/files/*path")
	params, ok := p.Match("/files/a/b/c.txt")
	if !ok {
		t.Fatal("should match")
	}
	if params["path"] != "a/b/c.txt" {
		t.Errorf("path = %q", params["path"])
	}
}

func TestPatternTrailingSlashStrip(t *testing.T) {
	p := NewPathPattern("/todos")
	if _, ok := p.Match("/todos/"); !ok {
		t.Error("strip behavior should match trailing slash")
	}
}

func TestPatternTrailingSlashStrict(t *testing.T) {
	p := NewPathPattern("/todos", WithTrailingSlash(TrailingSlashStrict))
	if _, ok := p.Match("/todos/"); ok {
		t.Error("strict behavior should reject trailing slash")
	}
}

func TestPatternCaseInsensitive(t *testing.T) {
	p := NewPathPattern("/Todos", WithCaseSensitivity(CaseInsensitive))
	if _, ok := p.Match("/todos"); !ok {
		t.Error("case-insensitive pattern should match")
	}

	strict := NewPathPattern("/Todos")
	if _, ok := strict.Match("/todos"); ok {
		t.Error("case-sensitive pattern should not match")
	}
}

func TestSplitPathParts(t *testing.T) {
	tests := []struct {
		raw            string
		path, q, hash string
	}{
		{"/todos/42?tab=done#notes", "/todos/42", "tab=done", "notes"},
		{"/todos/42?tab=done", "/todos/42", "tab=done", ""},
		{"/todos/42#notes", "/todos/42", "", "notes"},
		{"/todos/42", "/todos/42", "", ""},
		{"/", "/", "", ""},
	}
	for _, tt := range tests {
		path, q, hash := SplitPath(tt.raw)
		if path != tt.path || q != tt.q || hash != tt.hash {
			t.Errorf("SplitPath(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.raw, path, q, hash, tt.path, tt.q, tt.hash)
		}
	}
}

func TestDestinationFullPath(t *testing.T) {
	tests := []struct {
		dest Destination
		want string
	}{
		{Destination{Path: "/todos/42", RawQuery: "tab=done", Hash: "notes"}, "/todos/42?tab=done#notes"},
		{Destination{Path: "/todos/42", RawQuery: "tab=done"}, "/todos/42?tab=done"},
		{Destination{Path: "/todos/42"}, "/todos/42"},
	}
	for _, tt := range tests {
		if got := tt.dest.FullPath(); got != tt.want {
			t.Errorf("FullPath() = %q, want %q", got, tt.want)
		}
	}
}

func TestDestinationQuery(t *testing.T) {
	d := Destination{Path: "/x", RawQuery: "tag=a&tag=b"}
	if got := d.QueryValue("tag"); got != "a" {
		t.Errorf("QueryValue = %q, want %q", got, "a")
	}
	if got := d.Query()["tag"]; len(got) != 2 {
		t.Errorf("Query[tag] = %v, want 2 values", got)
	}
}
