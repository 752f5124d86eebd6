package main

import "testing"

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"alice", true},
		{"bot-01", true},
		{"Top_Player", true},
		{"abc", true},
		{"123456789012345678901234", true},

		{"", false},
		{"ab", false},
		{"1234567890123456789012345", false},
		{"has space", false},
		{"semi;colon", false},
		{"drop'table", false},
		{"tab\there", false},
	}
	for _, tt := range tests {
		if got := isValidUsername(tt.username); got != tt.want {
			t.Errorf("isValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
		}
	}
}
