package security

import "testing"

func TestCleanDisplayName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Alice Smith", want: "Alice Smith"},
		{name: "trims whitespace", in: "  Alice  ", want: "Alice"},
		{name: "strips tags", in: "<b>Bob</b>", want: "Bob"},
		{name: "drops script content", in: "<script>alert(1)</script>Eve", want: "Eve"},
		{name: "drops event handlers", in: `<img src=x onerror="alert(1)">Mallory`, want: "Mallory"},
		{name: "keeps ampersand", in: "Tom & Jerry", want: "Tom & Jerry"},
		{name: "keeps non-ascii", in: "山田 太郎", want: "山田 太郎"},
		{name: "markup only", in: "<i></i>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanDisplayName(tt.in); got != tt.want {
				t.Errorf("CleanDisplayName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
