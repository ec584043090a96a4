package pagepath

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPath  string
		wantQuery string
		wantErr   error
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "plain", input: "/dashboard", wantPath: "/dashboard"},
		{name: "trailing slash", input: "/blog/post/", wantPath: "/blog/post"},
		{name: "collapse slashes", input: "/blog//post", wantPath: "/blog/post"},
		{name: "single dot", input: "/blog/./post", wantPath: "/blog/post"},
		{name: "double dot", input: "/blog/posts/../other", wantPath: "/blog/other"},
		{name: "double dot to root", input: "/blog/../", wantPath: "/"},
		{name: "query kept", input: "/search?q=a//b&x=1", wantPath: "/search", wantQuery: "q=a//b&x=1"},
		{name: "fragment dropped", input: "/post?x=1#top", wantPath: "/post", wantQuery: "x=1"},
		{name: "escape kept", input: "/a%20b", wantPath: "/a%20b"},
		{name: "relative", input: "about", wantErr: ErrNotSiteRelative},
		{name: "empty", input: "", wantErr: ErrNotSiteRelative},
		{name: "protocol relative", input: "//evil.com/x", wantErr: ErrNotSiteRelative},
		{name: "absolute", input: "https://evil.com/", wantErr: ErrNotSiteRelative},
		{name: "backslash", input: `/a\b`, wantErr: ErrBackslash},
		{name: "null byte", input: "/a\x00b", wantErr: ErrNullByte},
		{name: "encoded null byte", input: "/a%00b", wantErr: ErrNullByte},
		{name: "bad escape", input: "/a%GG", wantErr: ErrBadEscape},
		{name: "short escape", input: "/a%2", wantErr: ErrBadEscape},
		{name: "escapes root", input: "/../secret", wantErr: ErrEscapesRoot},
		{name: "escapes root deeper", input: "/a/../../secret", wantErr: ErrEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got.Path != tt.wantPath || got.Query != tt.wantQuery {
				t.Errorf("Parse(%q) = %+v, want path %q query %q", tt.input, got, tt.wantPath, tt.wantQuery)
			}
		})
	}
}

func TestTargetString(t *testing.T) {
	if got := (Target{Path: "/a"}).String(); got != "/a" {
		t.Errorf("String() = %q", got)
	}
	if got := (Target{Path: "/a", Query: "x=1"}).String(); got != "/a?x=1" {
		t.Errorf("String() = %q", got)
	}
}

func TestTargetURL(t *testing.T) {
	target, err := Parse("/posts/a%20b?draft=1")
	if err != nil {
		t.Fatal(err)
	}
	u := target.URL()
	if u.Path != "/posts/a b" || u.RawPath != "/posts/a%20b" || u.RawQuery != "draft=1" {
		t.Errorf("URL() = %#v", u)
	}
	if got := u.RequestURI(); got != "/posts/a%20b?draft=1" {
		t.Errorf("RequestURI() = %q", got)
	}
	if u.IsAbs() || u.Host != "" {
		t.Errorf("URL() must stay site-relative: %v", u)
	}
}

func TestTargetSegments(t *testing.T) {
	if got := (Target{Path: "/"}).Segments(); got != nil {
		t.Errorf("root Segments() = %v", got)
	}
	got := (Target{Path: "/blog/a%20b"}).Segments()
	if want := []string{"blog", "a b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Segments() = %v, want %v", got, want)
	}
}
