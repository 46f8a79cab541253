package resumes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-portal/internal/shared/metrics"
)

// Searcher runs one storage lookup per populated criteria field and unions
// the results.
type Searcher struct {
	Repo Repo
	Now  func() time.Time
}

// NewSearcher constructs a Searcher over repo.
func NewSearcher(repo Repo) *Searcher {
	return &Searcher{Repo: repo, Now: time.Now}
}

// Search returns every record when criteria is empty. Otherwise it returns
// the de-duplicated union of all per-field lookups in first-seen order, which
// is empty when nothing matched. The upload window is one more union member,
// not a filter on the others.
func (s *Searcher) Search(ctx context.Context, c SearchCriteria) ([]Resume, error) {
	started := time.Now()
	if c.IsEmpty() {
		all, err := s.Repo.FindAll(ctx)
		if err != nil {
			metrics.ObserveSearch("error", started)
			return nil, fmt.Errorf("search all resumes: %w", err)
		}
		metrics.ObserveSearch("all", started)
		return all, nil
	}

	lookups, err := s.Lookups(c)
	if err != nil {
		metrics.ObserveSearch("invalid", started)
		return nil, err
	}

	seen := make(map[string]struct{})
	out := []Resume{}
	for _, l := range lookups {
		found, err := s.Repo.Find(ctx, l)
		if err != nil {
			metrics.ObserveSearch("error", started)
			return nil, fmt.Errorf("search %s: %w", l, err)
		}
		for _, res := range found {
			if _, dup := seen[res.ID]; dup {
				continue
			}
			seen[res.ID] = struct{}{}
			out = append(out, res)
		}
	}
	metrics.ObserveSearch("targeted", started)
	return out, nil
}

// Lookups plans the storage queries for c. The date window is parsed first so
// malformed dates fail before any query runs.
func (s *Searcher) Lookups(c SearchCriteria) ([]Lookup, error) {
	var window *Lookup
	if c.HasWindow() {
		from, to, err := c.Window(s.now())
		if err != nil {
			return nil, err
		}
		l := UploadedBetween(from, to)
		window = &l
	}

	var out []Lookup
	addText := func(v string, build func(string) Lookup) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, build(v))
		}
	}
	addList := func(values []string, cat SkillCategory) {
		if cleaned := cleanList(values); len(cleaned) > 0 {
			out = append(out, AnyOf(cat, cleaned))
		}
	}

	addText(c.Keyword, func(v string) Lookup { return Contains(FieldContent, v) })
	addText(c.FirstName, func(v string) Lookup { return Equals(FieldFirstName, v) })
	addText(c.LastName, func(v string) Lookup { return Equals(FieldLastName, v) })
	addText(c.FullName, EitherName)
	addText(c.Email, func(v string) Lookup { return Equals(FieldEmail, v) })
	addText(c.Phone, func(v string) Lookup { return Contains(FieldContent, v) })
	addText(c.City, func(v string) Lookup { return Equals(FieldCity, v) })
	addText(c.State, func(v string) Lookup { return Equals(FieldState, v) })
	addList(c.ProgrammingLanguages, SkillProgrammingLanguages)
	addList(c.Frameworks, SkillFrameworks)
	addList(c.Databases, SkillDatabases)
	addList(c.Tools, SkillTools)
	addList(c.CloudTechnologies, SkillCloudTechnologies)
	addText(c.AnySkill, AnySkill)
	addText(c.CompanyName, func(v string) Lookup { return Contains(FieldCompanyName, v) })
	addText(c.JobTitle, func(v string) Lookup { return Contains(FieldJobTitle, v) })
	addText(c.Degree, func(v string) Lookup { return Contains(FieldDegree, v) })
	addText(c.Institution, func(v string) Lookup { return Contains(FieldInstitution, v) })
	addText(c.Major, func(v string) Lookup { return Contains(FieldMajor, v) })
	if window != nil {
		out = append(out, *window)
	}
	return out, nil
}

func (s *Searcher) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
