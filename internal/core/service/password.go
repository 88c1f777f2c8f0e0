package service

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	minPasswordLength = 8
	maxSimilarity     = 0.7
)

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range []string{
		"password", "password1", "password123", "passw0rd", "12345678", "123456789",
		"1234567890", "qwerty123", "qwertyuiop", "iloveyou", "sunshine", "princess",
		"football", "baseball", "welcome1", "welcome123", "abc12345", "letmein1",
		"trustno1", "dragon123", "monkey123", "admin123", "administrator", "starwars",
		"superman", "whatever", "11111111", "00000000", "asdfghjkl", "zaq12wsx",
		"1q2w3e4r", "1qaz2wsx", "changeme", "computer", "internet", "michael1",
		"jennifer", "shadow12", "master12", "secret123",
	} {
		commonPasswords[p] = struct{}{}
	}
}

// passwordAttributes are the user attributes a password must not resemble.
type passwordAttributes struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// checkPasswordStrength returns every policy violation for password.
func checkPasswordStrength(password string, attrs passwordAttributes) []string {
	var problems []string

	if n := len([]rune(password)); n < minPasswordLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", minPasswordLength))
	}

	if isAllDigits(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	if _, common := commonPasswords[strings.ToLower(password)]; common {
		problems = append(problems, "This password is too common.")
	}

	emailLocal, _, _ := strings.Cut(attrs.Email, "@")
	for _, a := range []struct{ name, value string }{
		{"username", attrs.Username},
		{"email address", emailLocal},
		{"first name", attrs.FirstName},
		{"last name", attrs.LastName},
	} {
		if tooSimilar(password, a.value) {
			problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", a.name))
			break
		}
	}

	return problems
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar treats containment either way, or a normalised edit-distance
// similarity of at least maxSimilarity, as too similar. Attributes shorter
// than three characters are ignored.
func tooSimilar(password, attr string) bool {
	p := strings.ToLower(password)
	a := strings.ToLower(strings.TrimSpace(attr))
	if len([]rune(a)) < 3 || p == "" {
		return false
	}
	if strings.Contains(p, a) || strings.Contains(a, p) {
		return true
	}
	pr, ar := []rune(p), []rune(a)
	longest := max(len(pr), len(ar))
	similarity := 1 - float64(levenshtein(pr, ar))/float64(longest)
	return similarity >= maxSimilarity
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
