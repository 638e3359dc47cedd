package naming

import (
	"strings"
	"testing"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/models/user.schema.ts", "user schema"},
		{"src/UserService.java", "user service"},
		{"pkg/user_service.py", "user service"},
		{"web/user-profile.page.tsx", "user profile page"},
		{"HTTPServer_main.go", "http server main"},
		{"index.ts", "index"},
		{".eslintrc", "eslintrc"},
		{"Makefile", "makefile"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := strings.Join(Tokens(tt.path), " "); got != tt.want {
				t.Errorf("Tokens(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		token, keyword string
		want           bool
	}{
		{"model", "model", true},
		{"models", "model", true},
		{"entities", "entity", true},
		{"classes", "class", true},
		{"modal", "model", false},
		{"modelx", "model", false},
	}

	for _, tt := range tests {
		if got := Matches(tt.token, tt.keyword); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.token, tt.keyword, got, tt.want)
		}
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/user.service.ts", "service"},
		{"src/OrderService.java", "service"},
		{"app/user_services.py", "service"},
		{"src/user.model.ts", "model"},
		{"src/routes.ts", "route"},
		{"src/router.ts", "router"},
		{"src/user.ts", ""},
	}

	for _, tt := range tests {
		if got := Role(tt.path); got != tt.want {
			t.Errorf("Role(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
