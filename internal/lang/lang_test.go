package lang

import (
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".ts", "typescript"},
		{".mts", "typescript"},
		{".tsx", "tsx"},
		{".js", ""},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	if l := ForPath("dist/index.d.ts"); l == nil || l.Name != "typescript" {
		t.Errorf("ForPath(index.d.ts) = %v, want typescript", l)
	}
	if l := ForPath("src/App.TSX"); l == nil || l.Name != "tsx" {
		t.Errorf("ForPath(App.TSX) = %v, want tsx", l)
	}
	if l := ForPath("README.md"); l != nil {
		t.Errorf("ForPath(README.md) = %v, want nil", l)
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"typescript", "tsx"} {
		l, ok := Languages[name]
		if !ok {
			t.Fatalf("%s language not registered", name)
		}
		if l.GetLanguage() == nil {
			t.Errorf("%s language is nil", name)
		}
		if l.NewParser() == nil {
			t.Errorf("%s NewParser returned nil", name)
		}
	}
}

func TestGetReferenceQuery(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"typescript", "tsx"} {
		q, err := Languages[name].GetReferenceQuery()
		if err != nil {
			t.Fatalf("%s GetReferenceQuery: %v", name, err)
		}
		if q == nil {
			t.Fatalf("%s query is nil", name)
		}
	}
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{`"./a"`, "./a"},
		{`'./b.js'`, "./b.js"},
		{"`c`", "c"},
		{`"`, `"`},
		{`'mixed"`, `'mixed"`},
	}
	for _, tt := range tests {
		tt := tt
		if got := Unquote(tt.in); got != tt.want {
			t.Errorf("Unquote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
