package main

import "unicode"

func isValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 24 {
		return false
	}

	for _, r := range username {
		if r == '-' || r == '_' {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return false
	}

	return true
}
