package models

import "testing"

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		expected string
	}{
		{"regular login", "octocat", "octocat"},
		{"deleted account", "", "ghost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Login: tt.login}
			if got := user.DisplayName(); got != tt.expected {
				t.Errorf("DisplayName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUser_Initial(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		expected string
	}{
		{"ascii", "octocat", "o"},
		{"multibyte", "élodie", "é"},
		{"deleted account", "", "g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Login: tt.login}
			if got := user.Initial(); got != tt.expected {
				t.Errorf("Initial() = %q, want %q", got, tt.expected)
			}
		})
	}
}
