package resumes

import (
	"strings"
	"time"

	"resume-portal/internal/convert"
	"resume-portal/internal/masking"
)

// Resume is one uploaded document plus the profile parsed from it.
type Resume struct {
	ID                  string       `bson:"id" json:"id"`
	FirstName           string       `bson:"firstName" json:"firstName"`
	LastName            string       `bson:"lastName" json:"lastName"`
	Email               string       `bson:"email,omitempty" json:"email,omitempty"`
	Phone               string       `bson:"phone,omitempty" json:"phone,omitempty"`
	LinkedInURL         string       `bson:"linkedinUrl,omitempty" json:"linkedinUrl,omitempty"`
	WebsiteURL          string       `bson:"websiteUrl,omitempty" json:"websiteUrl,omitempty"`
	ProfessionalSummary string       `bson:"professionalSummary,omitempty" json:"professionalSummary,omitempty"`
	City                string       `bson:"city,omitempty" json:"city,omitempty"`
	State               string       `bson:"state,omitempty" json:"state,omitempty"`
	Country             string       `bson:"country,omitempty" json:"country,omitempty"`
	Education           []Education  `bson:"education,omitempty" json:"education,omitempty"`
	Experience          []Experience `bson:"experience,omitempty" json:"experience,omitempty"`
	Skills              Skills       `bson:"skills" json:"skills"`

	OriginalFileName string    `bson:"originalFileName" json:"originalFileName"`
	FileType         string    `bson:"fileType" json:"fileType"`
	OriginalFileSize int64     `bson:"originalFileSize" json:"originalFileSize"`
	StorageKey       string    `bson:"storageKey" json:"storageKey"`
	UploadedAt       time.Time `bson:"uploadedAt" json:"uploadedAt"`
	UploadedBy       string    `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"`

	Text        string `bson:"text,omitempty" json:"text,omitempty"`
	HTMLContent string `bson:"htmlContent,omitempty" json:"htmlContent,omitempty"`
}

type Education struct {
	Degree      string `bson:"degree,omitempty" json:"degree,omitempty"`
	Major       string `bson:"major,omitempty" json:"major,omitempty"`
	Institution string `bson:"institution,omitempty" json:"institution,omitempty"`
	City        string `bson:"city,omitempty" json:"city,omitempty"`
	State       string `bson:"state,omitempty" json:"state,omitempty"`
	StartDate   string `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     string `bson:"endDate,omitempty" json:"endDate,omitempty"`
	GPA         string `bson:"gpa,omitempty" json:"gpa,omitempty"`
	Honors      string `bson:"honors,omitempty" json:"honors,omitempty"`
}

type Experience struct {
	JobTitle          string   `bson:"jobTitle,omitempty" json:"jobTitle,omitempty"`
	CompanyName       string   `bson:"companyName,omitempty" json:"companyName,omitempty"`
	City              string   `bson:"city,omitempty" json:"city,omitempty"`
	State             string   `bson:"state,omitempty" json:"state,omitempty"`
	StartDate         string   `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate           string   `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsCurrentPosition bool     `bson:"isCurrentPosition" json:"isCurrentPosition"`
	Responsibilities  []string `bson:"responsibilities,omitempty" json:"responsibilities,omitempty"`
}

// Skills groups skills by category. Category names double as storage paths.
type Skills struct {
	ProgrammingLanguages []string `bson:"programmingLanguages,omitempty" json:"programmingLanguages,omitempty"`
	Frameworks           []string `bson:"frameworks,omitempty" json:"frameworks,omitempty"`
	Libraries            []string `bson:"libraries,omitempty" json:"libraries,omitempty"`
	Databases            []string `bson:"databases,omitempty" json:"databases,omitempty"`
	Tools                []string `bson:"tools,omitempty" json:"tools,omitempty"`
	CloudTechnologies    []string `bson:"cloudTechnologies,omitempty" json:"cloudTechnologies,omitempty"`
	SoftSkills           []string `bson:"softSkills,omitempty" json:"softSkills,omitempty"`
}

// SkillCategory names a list inside Skills.
type SkillCategory string

const (
	SkillProgrammingLanguages SkillCategory = "programmingLanguages"
	SkillFrameworks           SkillCategory = "frameworks"
	SkillLibraries            SkillCategory = "libraries"
	SkillDatabases            SkillCategory = "databases"
	SkillTools                SkillCategory = "tools"
	SkillCloudTechnologies    SkillCategory = "cloudTechnologies"
	SkillSoftSkills           SkillCategory = "softSkills"
)

// AllSkillCategories lists every category in display order.
var AllSkillCategories = []SkillCategory{
	SkillProgrammingLanguages,
	SkillFrameworks,
	SkillLibraries,
	SkillDatabases,
	SkillTools,
	SkillCloudTechnologies,
	SkillSoftSkills,
}

// Category returns the list for a category.
func (s Skills) Category(c SkillCategory) []string {
	switch c {
	case SkillProgrammingLanguages:
		return s.ProgrammingLanguages
	case SkillFrameworks:
		return s.Frameworks
	case SkillLibraries:
		return s.Libraries
	case SkillDatabases:
		return s.Databases
	case SkillTools:
		return s.Tools
	case SkillCloudTechnologies:
		return s.CloudTechnologies
	case SkillSoftSkills:
		return s.SoftSkills
	default:
		return nil
	}
}

func (r Resume) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func (r Resume) MaskedEmail() string {
	return masking.MaskEmail(r.Email)
}

func (r Resume) MaskedPhone() string {
	return masking.MaskPhone(r.Phone)
}

func (r Resume) FormattedFileSize() string {
	return convert.FormatFileSize(r.OriginalFileSize)
}
