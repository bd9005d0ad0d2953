package category

import (
	"errors"
	"testing"

	"github.com/kozaktomas/collection-sync/internal/config"
)

type fakeSource struct {
	table config.CategoriesConfig
	err   error
	calls int
}

func (f *fakeSource) CategoryTable() (config.CategoriesConfig, error) {
	f.calls++
	return f.table, f.err
}

func newTestSource() *fakeSource {
	return &fakeSource{table: config.CategoriesConfig{
		Categories: map[int]config.CategoryEntry{
			1: {Name: "Franchises", Poster: "provider"},
			2: {Name: "Genres", Poster: "genre.png"},
			3: {Name: "Decades"},
			4: {Name: "Charts"},
		},
		TemplateOverrides: map[int]string{
			1: "franchise.png",
			3: "decade.png",
		},
	}}
}

func intPtr(v int) *int { return &v }

func TestResolve_NilID(t *testing.T) {
	c := New(newTestSource())

	cat := c.Resolve(nil)

	if cat.Template != "default" {
		t.Errorf("expected template 'default', got '%s'", cat.Template)
	}
	if cat.ProviderArt {
		t.Error("expected default category not to be provider art")
	}
}

func TestResolve_UnknownID(t *testing.T) {
	c := New(newTestSource())

	cat := c.Resolve(intPtr(999))

	if cat != Default {
		t.Errorf("expected Default for unknown id, got %+v", cat)
	}
}

func TestResolve_ProviderArtWinsOverOverride(t *testing.T) {
	c := New(newTestSource())

	cat := c.Resolve(intPtr(1))

	if !cat.ProviderArt {
		t.Fatal("expected category 1 to be provider art")
	}
	if cat.Template != "" {
		t.Errorf("expected no template for provider-art category, got '%s'", cat.Template)
	}
	if cat.DisplayName != "Franchises" {
		t.Errorf("expected display name 'Franchises', got '%s'", cat.DisplayName)
	}
}

func TestResolve_TemplatePrecedence(t *testing.T) {
	c := New(newTestSource())

	tests := []struct {
		id   int
		want string
	}{
		{2, "genre.png"},  // own poster
		{3, "decade.png"}, // override table
		{4, "default"},    // neither
	}

	for _, tt := range tests {
		cat := c.Resolve(intPtr(tt.id))
		if cat.Template != tt.want {
			t.Errorf("category %d: expected template '%s', got '%s'", tt.id, tt.want, cat.Template)
		}
		if cat.ProviderArt {
			t.Errorf("category %d: unexpected provider art", tt.id)
		}
	}
}

func TestResolve_LoadsOnce(t *testing.T) {
	src := newTestSource()
	c := New(src)

	c.Resolve(intPtr(1))
	c.Resolve(intPtr(2))
	c.Resolve(nil)
	c.Categories()

	if src.calls != 1 {
		t.Errorf("expected table to be loaded once, got %d loads", src.calls)
	}
}

func TestResolve_LoadErrorDegradesToDefault(t *testing.T) {
	c := New(&fakeSource{err: errors.New("boom")})

	cat := c.Resolve(intPtr(1))

	if cat != Default {
		t.Errorf("expected Default when table cannot be loaded, got %+v", cat)
	}
}

func TestCategories_SortedByID(t *testing.T) {
	c := New(newTestSource())

	cats := c.Categories()

	if len(cats) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(cats))
	}
	for i, want := range []int{1, 2, 3, 4} {
		if cats[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, cats[i].ID)
		}
	}
}
