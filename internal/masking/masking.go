package masking

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// NotProvided is shown for contact fields that are empty.
	NotProvided = "Not provided"

	emailMarker     = "***@mail"
	phoneMask       = "******"
	fieldPhoneMask  = "*******"
	fieldEmailMask  = "*****"
	minPhoneDigits  = 10
	maxPhoneDigits  = 15
	visibleDigits   = 4
	visibleLocalLen = 3
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Digit runs joined by at most two separator characters. A candidate can
	// chain several numbers separated by spaces, so maskPhoneMatch splits it
	// into space-separated groups and masks each phone-sized span on its own.
	phoneCandidate = regexp.MustCompile(`\+?\(?\d(?:[ .\-()]{0,2}\d)+`)
)

// MaskHTML redacts emails and phone numbers in the text nodes of an HTML page.
// Tags, attributes and script/style bodies are copied through untouched, and
// only the <body> is considered when the page has one.
func MaskHTML(page string) string {
	if page == "" {
		return page
	}
	start, end := bodyRange(page)

	var out strings.Builder
	out.Grow(len(page))
	out.WriteString(page[:start])
	maskMarkup(&out, page[start:end])
	out.WriteString(page[end:])
	return out.String()
}

// MaskText redacts emails and phone numbers in plain text.
func MaskText(text string) string {
	if text == "" {
		return text
	}
	masked := emailPattern.ReplaceAllStringFunc(text, maskEmailMatch)
	return maskPhones(masked)
}

// MaskEmail masks a profile email for summary views: the first three
// characters of the local part stay visible when it has at least four.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if email == "" || at < 0 {
		return NotProvided
	}
	local := []rune(email[:at])
	domain := email[at:]
	if len(local) > visibleLocalLen {
		return string(local[:visibleLocalLen]) + fieldEmailMask + domain
	}
	return "***" + domain
}

// MaskPhone masks a profile phone number leaving the last four digits.
func MaskPhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return NotProvided
	}
	digits := onlyDigits(phone)
	if len(digits) <= visibleDigits {
		return "****"
	}
	return fieldPhoneMask + digits[len(digits)-visibleDigits:]
}

func maskEmailMatch(match string) string {
	at := strings.IndexByte(match, '@')
	local := []rune(match[:at])
	if len(local) <= visibleLocalLen {
		return emailMarker
	}
	return string(local[:visibleLocalLen]) + emailMarker
}

func maskPhones(text string) string {
	matches := phoneCandidate.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var out strings.Builder
	out.Grow(len(text))
	last := 0
	for _, m := range matches {
		out.WriteString(text[last:m[0]])
		// digits right after '*' are the visible tail of an earlier mask
		afterMask := m[0] > 0 && text[m[0]-1] == '*'
		out.WriteString(maskPhoneMatch(text[m[0]:m[1]], afterMask))
		last = m[1]
	}
	out.WriteString(text[last:])
	return out.String()
}

// maskPhoneMatch walks the space-separated groups of a candidate. From each
// group it takes the shortest run of groups holding at least minPhoneDigits
// digits and masks it when it holds no more than maxPhoneDigits. A group that
// is phone-sized by itself never joins the groups before it, so a year next
// to a number survives.
func maskPhoneMatch(match string, afterMask bool) string {
	groups := spaceGroups(match)
	counts := make([]int, len(groups))
	for k, g := range groups {
		counts[k] = countDigits(match[g[0]:g[1]])
	}

	i := 0
	if afterMask && len(groups) > 0 && groups[0][1]-groups[0][0] == visibleDigits && counts[0] == visibleDigits {
		i = 1
	}
	var out strings.Builder
	last := 0
	for i < len(groups) {
		j, digits := i, 0
		for ; j < len(groups); j++ {
			if j > i && counts[j] >= minPhoneDigits {
				break
			}
			digits += counts[j]
			if digits >= minPhoneDigits {
				break
			}
		}
		if digits < minPhoneDigits || digits > maxPhoneDigits {
			i++
			continue
		}
		start, end := groups[i][0], groups[j][1]
		out.WriteString(match[last:start])
		d := onlyDigits(match[start:end])
		out.WriteString(phoneMask + d[len(d)-visibleDigits:])
		last = end
		i = j + 1
	}
	out.WriteString(match[last:])
	return out.String()
}

// spaceGroups returns the byte ranges of the space-separated parts of s.
func spaceGroups(s string) [][2]int {
	var groups [][2]int
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if start >= 0 {
				groups = append(groups, [2]int{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		groups = append(groups, [2]int{start, len(s)})
	}
	return groups
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// bodyRange returns the byte range between the end of the opening <body> tag
// and the start of </body>. Without a body the whole page is returned.
func bodyRange(page string) (int, int) {
	lower := strings.ToLower(page)
	open := indexTag(lower, "<body", 0)
	if open < 0 {
		return 0, len(page)
	}
	gt := strings.IndexByte(lower[open:], '>')
	if gt < 0 {
		return 0, len(page)
	}
	start := open + gt + 1
	end := strings.LastIndex(lower, "</body")
	if end < start {
		end = len(page)
	}
	return start, end
}

// indexTag finds name followed by whitespace, '>' or '/' so "<bodyx" is not
// mistaken for "<body".
func indexTag(lower, name string, from int) int {
	for from <= len(lower) {
		i := strings.Index(lower[from:], name)
		if i < 0 {
			return -1
		}
		pos := from + i
		next := pos + len(name)
		if next >= len(lower) {
			return -1
		}
		c := rune(lower[next])
		if c == '>' || c == '/' || unicode.IsSpace(c) {
			return pos
		}
		from = next
	}
	return -1
}

func maskMarkup(out *strings.Builder, fragment string) {
	lower := strings.ToLower(fragment)
	i := 0
	for i < len(fragment) {
		lt := strings.IndexByte(fragment[i:], '<')
		if lt < 0 {
			out.WriteString(MaskText(fragment[i:]))
			return
		}
		out.WriteString(MaskText(fragment[i : i+lt]))
		i += lt

		gt := strings.IndexByte(fragment[i:], '>')
		if gt < 0 {
			out.WriteString(fragment[i:])
			return
		}
		tagEnd := i + gt + 1
		out.WriteString(fragment[i:tagEnd])

		for _, raw := range []string{"script", "style"} {
			if indexTag(lower[i:tagEnd], "<"+raw, 0) == 0 {
				closing := strings.Index(lower[tagEnd:], "</"+raw)
				if closing < 0 {
					out.WriteString(fragment[tagEnd:])
					return
				}
				out.WriteString(fragment[tagEnd : tagEnd+closing])
				tagEnd += closing
				break
			}
		}
		i = tagEnd
	}
}
