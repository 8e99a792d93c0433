package native

import (
	"reflect"
	"testing"
)

func handlerIDs(cs []Candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.HandlerID
	}
	return ids
}

func TestRadixTree_Search(t *testing.T) {
	tree := NewRadixTree()
	routes := []struct {
		path string
		id   string
	}{
		{"/", "root"},
		{"/api/users", "users"},
		{"/api/users/{id}", "user"},
		{"/api/users/{name:alpha}", "user-by-name"},
		{"/api/users/me", "me"},
		{"/api/users/{id}/posts/{postId}", "post"},
	}
	for i, r := range routes {
		if err := tree.Insert(r.path, r.id, uint64(i+1)); err != nil {
			t.Fatalf("Insert(%q) error = %v", r.path, err)
		}
	}

	tests := []struct {
		name       string
		path       string
		wantIDs    []string
		wantParams []map[string]string
	}{
		{
			name:       "root",
			path:       "/",
			wantIDs:    []string{"root"},
			wantParams: []map[string]string{{}},
		},
		{
			name:       "static",
			path:       "/api/users/",
			wantIDs:    []string{"users"},
			wantParams: []map[string]string{{}},
		},
		{
			name:       "static before dynamic",
			path:       "/api/users/me",
			wantIDs:    []string{"me", "user", "user-by-name"},
			wantParams: []map[string]string{{}, {"id": "me"}, {"name": "me"}},
		},
		{
			name:       "dynamic in insertion order",
			path:       "/api/users/42",
			wantIDs:    []string{"user", "user-by-name"},
			wantParams: []map[string]string{{"id": "42"}, {"name": "42"}},
		},
		{
			name:       "nested params",
			path:       "/api/users/42/posts/7",
			wantIDs:    []string{"post"},
			wantParams: []map[string]string{{"id": "42", "postId": "7"}},
		},
		{
			name:    "no match",
			path:    "/api/products",
			wantIDs: []string{},
		},
		{
			name:    "empty segment does not bind",
			path:    "/api/users//posts/7",
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tree.Search(tt.path)
			if ids := handlerIDs(got); !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Fatalf("Search(%q) ids = %v, want %v", tt.path, ids, tt.wantIDs)
			}
			for i, want := range tt.wantParams {
				if !reflect.DeepEqual(got[i].Params, want) {
					t.Errorf("Search(%q)[%d].Params = %v, want %v", tt.path, i, got[i].Params, want)
				}
			}
		})
	}
}

func TestRadixTree_StaticReplace(t *testing.T) {
	tree := NewRadixTree()
	_ = tree.Insert("/health", "first", 1)
	_ = tree.Insert("/health", "second", 2)

	got := tree.Search("/health")
	if ids := handlerIDs(got); !reflect.DeepEqual(ids, []string{"second"}) {
		t.Errorf("Search() = %v, want [second]", ids)
	}
	if tree.Size() != 1 {
		t.Errorf("Size() = %d, want 1", tree.Size())
	}
}

func TestRadixTree_InsertErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "unbalanced", path: "/users/{id", want: errUnbalancedBrace},
		{name: "closing only", path: "/users/id}", want: errUnbalancedBrace},
		{name: "partial", path: "/users/v{id}", want: errPartialParam},
		{name: "empty name", path: "/users/{}", want: errEmptyParamName},
	}

	tree := NewRadixTree()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tree.Insert(tt.path, "h", 1); err != tt.want {
				t.Errorf("Insert(%q) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
	if tree.Size() != 0 {
		t.Errorf("Size() = %d after failed inserts, want 0", tree.Size())
	}
}

func TestRadixTree_Clear(t *testing.T) {
	tree := NewRadixTree()
	_ = tree.Insert("/a/{id}", "a", 1)
	tree.Clear()

	if tree.Size() != 0 {
		t.Errorf("Size() = %d, want 0", tree.Size())
	}
	if got := tree.Search("/a/1"); len(got) != 0 {
		t.Errorf("Search() after Clear = %v, want none", got)
	}
}

func TestGetSegmentType(t *testing.T) {
	tests := []struct {
		segment  string
		wantType nodeType
		wantName string
	}{
		{"users", static, "users"},
		{"{id}", param, "id"},
		{"{id:int}", param, "id"},
		{"{", static, "{"},
	}

	for _, tt := range tests {
		gotType, gotName := getSegmentType(tt.segment)
		if gotType != tt.wantType || gotName != tt.wantName {
			t.Errorf("getSegmentType(%q) = %v, %q, want %v, %q", tt.segment, gotType, gotName, tt.wantType, tt.wantName)
		}
	}
}
