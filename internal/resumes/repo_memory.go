package resumes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo. FindAll returns
// records in insertion order.
type MemoryRepo struct {
	mu    sync.RWMutex
	data  map[string]Resume
	order []string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Resume)}
}

var _ Repo = (*MemoryRepo)(nil)

// Save inserts or replaces a resume. UploadedAt of an existing record is kept.
func (r *MemoryRepo) Save(ctx context.Context, res Resume) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	if res.ID == "" {
		return Resume{}, fmt.Errorf("%w: id required", ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[res.ID]; ok {
		res.UploadedAt = existing.UploadedAt
	} else {
		r.order = append(r.order, res.ID)
	}
	r.data[res.ID] = res
	return res, nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.data[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return res, nil
}

func (r *MemoryRepo) FindAll(ctx context.Context) ([]Resume, error) {
	return r.filter(ctx, func(Resume) bool { return true })
}

func (r *MemoryRepo) Find(ctx context.Context, l Lookup) ([]Resume, error) {
	match, err := memoryMatcher(l)
	if err != nil {
		return nil, err
	}
	return r.filter(ctx, match)
}

func (r *MemoryRepo) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	r.compact()
	return nil
}

func (r *MemoryRepo) DeleteUploadedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, res := range r.data {
		if res.UploadedAt.Before(cutoff) {
			delete(r.data, id)
			deleted++
		}
	}
	r.compact()
	return deleted, nil
}

func (r *MemoryRepo) filter(ctx context.Context, keep func(Resume) bool) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resume, 0, len(r.order))
	for _, id := range r.order {
		if res := r.data[id]; keep(res) {
			out = append(out, res)
		}
	}
	return out, nil
}

// compact drops deleted ids from order; callers hold the write lock.
func (r *MemoryRepo) compact() {
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.data[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order = kept
}

func memoryMatcher(l Lookup) (func(Resume) bool, error) {
	switch l.Kind {
	case MatchEquals:
		return func(res Resume) bool {
			return anyValue(fieldValues(res, l.Field), func(v string) bool { return strings.EqualFold(v, l.Value) })
		}, nil
	case MatchEitherName:
		return func(res Resume) bool {
			return strings.EqualFold(res.FirstName, l.Value) || strings.EqualFold(res.LastName, l.Value)
		}, nil
	case MatchContains:
		needle := strings.ToLower(l.Value)
		return func(res Resume) bool {
			return anyValue(fieldValues(res, l.Field), func(v string) bool { return strings.Contains(strings.ToLower(v), needle) })
		}, nil
	case MatchAnyOf:
		return func(res Resume) bool {
			return anyValue(fieldValues(res, l.Field), func(v string) bool {
				for _, want := range l.Values {
					if strings.EqualFold(v, want) {
						return true
					}
				}
				return false
			})
		}, nil
	case MatchAnySkill:
		needle := strings.ToLower(l.Value)
		return func(res Resume) bool {
			for _, c := range AllSkillCategories {
				if anyValue(res.Skills.Category(c), func(v string) bool { return strings.Contains(strings.ToLower(v), needle) }) {
					return true
				}
			}
			return false
		}, nil
	case MatchUploadedBetween:
		return func(res Resume) bool {
			return !res.UploadedAt.Before(l.From) && !res.UploadedAt.After(l.To)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported lookup %s", ErrInvalidCriteria, l)
	}
}

// fieldValues flattens a storage path into the values it holds.
func fieldValues(res Resume, f Field) []string {
	switch f {
	case FieldFirstName:
		return []string{res.FirstName}
	case FieldLastName:
		return []string{res.LastName}
	case FieldEmail:
		return []string{res.Email}
	case FieldCity:
		return []string{res.City}
	case FieldState:
		return []string{res.State}
	case FieldContent:
		return []string{res.HTMLContent, res.Text}
	case FieldCompanyName, FieldJobTitle:
		out := make([]string, 0, len(res.Experience))
		for _, e := range res.Experience {
			if f == FieldCompanyName {
				out = append(out, e.CompanyName)
			} else {
				out = append(out, e.JobTitle)
			}
		}
		return out
	case FieldDegree, FieldInstitution, FieldMajor:
		out := make([]string, 0, len(res.Education))
		for _, e := range res.Education {
			switch f {
			case FieldDegree:
				out = append(out, e.Degree)
			case FieldInstitution:
				out = append(out, e.Institution)
			default:
				out = append(out, e.Major)
			}
		}
		return out
	}
	for _, c := range AllSkillCategories {
		if f == SkillField(c) {
			return res.Skills.Category(c)
		}
	}
	return nil
}

func anyValue(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if v != "" && pred(v) {
			return true
		}
	}
	return false
}
