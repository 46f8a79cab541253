package resumes

import (
	"context"
	"fmt"
	"time"
)

// Repo defines persistence operations for resumes.
type Repo interface {
	Save(ctx context.Context, r Resume) (Resume, error)
	FindByID(ctx context.Context, id string) (Resume, error)
	FindAll(ctx context.Context) ([]Resume, error)
	Find(ctx context.Context, l Lookup) ([]Resume, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteUploadedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LookupKind selects how a Lookup compares values.
type LookupKind int

const (
	// MatchEquals is case-insensitive equality.
	MatchEquals LookupKind = iota + 1
	// MatchEitherName compares against first name or last name.
	MatchEitherName
	// MatchContains is a case-insensitive substring match.
	MatchContains
	// MatchAnyOf matches when a skill list shares a value with Values.
	MatchAnyOf
	// MatchAnySkill is a substring match across all skill categories.
	MatchAnySkill
	// MatchUploadedBetween is a closed interval on UploadedAt.
	MatchUploadedBetween
)

// Field is a storage path. Nested paths use dots, as stored.
type Field string

const (
	FieldFirstName   Field = "firstName"
	FieldLastName    Field = "lastName"
	FieldEmail       Field = "email"
	FieldCity        Field = "city"
	FieldState       Field = "state"
	FieldContent     Field = "htmlContent"
	FieldCompanyName Field = "experience.companyName"
	FieldJobTitle    Field = "experience.jobTitle"
	FieldDegree      Field = "education.degree"
	FieldInstitution Field = "education.institution"
	FieldMajor       Field = "education.major"
	FieldUploadedAt  Field = "uploadedAt"
)

// SkillField returns the storage path of a skill category.
func SkillField(c SkillCategory) Field {
	return Field("skills." + string(c))
}

// Lookup is one targeted query against storage.
type Lookup struct {
	Kind   LookupKind
	Field  Field
	Value  string
	Values []string
	From   time.Time
	To     time.Time
}

func Equals(f Field, v string) Lookup {
	return Lookup{Kind: MatchEquals, Field: f, Value: v}
}

func EitherName(v string) Lookup {
	return Lookup{Kind: MatchEitherName, Value: v}
}

func Contains(f Field, v string) Lookup {
	return Lookup{Kind: MatchContains, Field: f, Value: v}
}

func AnyOf(c SkillCategory, values []string) Lookup {
	return Lookup{Kind: MatchAnyOf, Field: SkillField(c), Values: values}
}

func AnySkill(v string) Lookup {
	return Lookup{Kind: MatchAnySkill, Value: v}
}

func UploadedBetween(from, to time.Time) Lookup {
	return Lookup{Kind: MatchUploadedBetween, Field: FieldUploadedAt, From: from, To: to}
}

func (l Lookup) String() string {
	switch l.Kind {
	case MatchEquals:
		return fmt.Sprintf("%s equals %q", l.Field, l.Value)
	case MatchEitherName:
		return fmt.Sprintf("name equals %q", l.Value)
	case MatchContains:
		return fmt.Sprintf("%s contains %q", l.Field, l.Value)
	case MatchAnyOf:
		return fmt.Sprintf("%s in %q", l.Field, l.Values)
	case MatchAnySkill:
		return fmt.Sprintf("any skill contains %q", l.Value)
	case MatchUploadedBetween:
		return fmt.Sprintf("uploadedAt between %s and %s", l.From.Format(time.RFC3339), l.To.Format(time.RFC3339))
	default:
		return fmt.Sprintf("lookup kind %d", l.Kind)
	}
}
