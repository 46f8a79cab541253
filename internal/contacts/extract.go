package contacts

import (
	"regexp"
	"strings"
	"unicode"
)

// Contact holds best-effort guesses pulled from unstructured resume text.
// Any field may be empty.
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	LinkedIn  string
}

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?\(?\d(?:[ .\-()]{0,2}\d)+`)
	linkedInPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/[A-Za-z0-9_\-%]+/?`)
)

const nameScanLines = 5

// Extract scans text for contact details.
func Extract(text string) Contact {
	var c Contact
	if strings.TrimSpace(text) == "" {
		return c
	}
	c.Email = emailPattern.FindString(text)
	c.Phone = findPhone(text)
	c.LinkedIn = linkedInPattern.FindString(text)
	c.FirstName, c.LastName = guessName(text)
	return c
}

// HasName reports whether both name parts were found.
func (c Contact) HasName() bool {
	return c.FirstName != "" && c.LastName != ""
}

// Empty reports whether nothing was found.
func (c Contact) Empty() bool {
	return c == Contact{}
}

func findPhone(text string) string {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		digits := 0
		for _, r := range candidate {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 10 && digits <= 15 {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// guessName takes the first short line made only of capitalised words.
func guessName(text string) (string, string) {
	lines := strings.Split(text, "\n")
	seen := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen > nameScanLines {
			break
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if !allNameWords(words) {
			continue
		}
		return words[0], words[len(words)-1]
	}
	return "", ""
}

func allNameWords(words []string) bool {
	for _, w := range words {
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes {
			if !unicode.IsLetter(r) && r != '.' && r != '\'' && r != '-' {
				return false
			}
		}
	}
	return true
}
