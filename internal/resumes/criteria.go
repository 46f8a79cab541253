package resumes

import (
	"fmt"
	"strings"
	"time"
)

// SearchCriteria is a bag of optional filters. Every populated field becomes
// one lookup; results of all lookups are unioned.
type SearchCriteria struct {
	Keyword   string `json:"keyword,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	FullName  string `json:"fullName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`

	ProgrammingLanguages []string `json:"programmingLanguages,omitempty"`
	Frameworks           []string `json:"frameworks,omitempty"`
	Databases            []string `json:"databases,omitempty"`
	Tools                []string `json:"tools,omitempty"`
	CloudTechnologies    []string `json:"cloudTechnologies,omitempty"`
	AnySkill             string   `json:"anySkill,omitempty"`

	CompanyName string `json:"companyName,omitempty"`
	JobTitle    string `json:"jobTitle,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Major       string `json:"major,omitempty"`

	UploadedAfter  string `json:"uploadedAfter,omitempty"`
	UploadedBefore string `json:"uploadedBefore,omitempty"`
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

// IsEmpty reports whether no field is populated.
func (c SearchCriteria) IsEmpty() bool {
	for _, s := range []string{
		c.Keyword, c.FirstName, c.LastName, c.FullName, c.Email, c.Phone,
		c.City, c.State, c.AnySkill, c.CompanyName, c.JobTitle, c.Degree,
		c.Institution, c.Major, c.UploadedAfter, c.UploadedBefore,
	} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	for _, list := range [][]string{
		c.ProgrammingLanguages, c.Frameworks, c.Databases, c.Tools, c.CloudTechnologies,
	} {
		if len(cleanList(list)) > 0 {
			return false
		}
	}
	return true
}

// HasWindow reports whether either upload-date bound is set.
func (c SearchCriteria) HasWindow() bool {
	return strings.TrimSpace(c.UploadedAfter) != "" || strings.TrimSpace(c.UploadedBefore) != ""
}

// Window parses the upload-date bounds. A missing lower bound is the zero
// time and a missing upper bound is now.
func (c SearchCriteria) Window(now time.Time) (time.Time, time.Time, error) {
	var from, to time.Time
	to = now
	if raw := strings.TrimSpace(c.UploadedAfter); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: uploadedAfter %q", ErrInvalidCriteria, raw)
		}
		from = t
	}
	if raw := strings.TrimSpace(c.UploadedBefore); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: uploadedBefore %q", ErrInvalidCriteria, raw)
		}
		to = t
	}
	return from, to, nil
}

// Local date-times without an offset are read as UTC.
func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// CriteriaFromQuery fans a single free-text query out to every text field,
// the way the search form does. Comma-separated parts also feed every
// exact-match skill list.
func CriteriaFromQuery(query, uploadedBefore string) SearchCriteria {
	query = strings.TrimSpace(query)
	c := SearchCriteria{UploadedBefore: strings.TrimSpace(uploadedBefore)}
	if query == "" {
		return c
	}
	c.Keyword = query
	c.FullName = query
	c.City = query
	c.State = query
	c.CompanyName = query
	c.JobTitle = query
	c.Institution = query
	c.Major = query
	c.Degree = query
	skills := cleanList(strings.Split(query, ","))
	c.ProgrammingLanguages = skills
	c.Frameworks = skills
	c.Databases = skills
	c.Tools = skills
	c.CloudTechnologies = skills
	return c
}

func cleanList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
