package resumes

import (
	"time"

	"resume-portal/internal/masking"
)

const summaryPreviewLen = 150

// ResumeResponse is the outward-facing representation of a resume. For
// anonymous viewers contact fields are masked, links are dropped and free
// text goes through masking.MaskText.
type ResumeResponse struct {
	ID                  string       `json:"id"`
	FirstName           string       `json:"firstName"`
	LastName            string       `json:"lastName"`
	FullName            string       `json:"fullName"`
	Email               string       `json:"email"`
	Phone               string       `json:"phone"`
	LinkedInURL         string       `json:"linkedinUrl,omitempty"`
	WebsiteURL          string       `json:"websiteUrl,omitempty"`
	City                string       `json:"city,omitempty"`
	State               string       `json:"state,omitempty"`
	Country             string       `json:"country,omitempty"`
	ProfessionalSummary string       `json:"professionalSummary,omitempty"`
	Education           []Education  `json:"education,omitempty"`
	Experience          []Experience `json:"experience,omitempty"`
	Skills              Skills       `json:"skills"`
	OriginalFileName    string       `json:"originalFileName"`
	FileType            string       `json:"fileType"`
	OriginalFileSize    int64        `json:"originalFileSize"`
	FormattedFileSize   string       `json:"formattedFileSize"`
	UploadedAt          time.Time    `json:"uploadedAt"`
	Masked              bool         `json:"masked"`
}

// SearchResultResponse is the compact row returned by the search API.
type SearchResultResponse struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toResponse(res Resume, authenticated bool) ResumeResponse {
	out := ResumeResponse{
		ID:                  res.ID,
		FirstName:           res.FirstName,
		LastName:            res.LastName,
		FullName:            res.FullName(),
		Email:               res.Email,
		Phone:               res.Phone,
		LinkedInURL:         res.LinkedInURL,
		WebsiteURL:          res.WebsiteURL,
		City:                res.City,
		State:               res.State,
		Country:             res.Country,
		ProfessionalSummary: res.ProfessionalSummary,
		Education:           res.Education,
		Experience:          res.Experience,
		Skills:              res.Skills,
		OriginalFileName:    res.OriginalFileName,
		FileType:            res.FileType,
		OriginalFileSize:    res.OriginalFileSize,
		FormattedFileSize:   res.FormattedFileSize(),
		UploadedAt:          res.UploadedAt,
	}
	if !authenticated {
		out.Email = res.MaskedEmail()
		out.Phone = res.MaskedPhone()
		out.LinkedInURL = ""
		out.WebsiteURL = ""
		out.ProfessionalSummary = masking.MaskText(res.ProfessionalSummary)
		out.Experience = maskedExperience(res.Experience)
		out.Masked = true
	}
	return out
}

// maskedExperience copies list so the stored record keeps its raw text.
func maskedExperience(list []Experience) []Experience {
	if len(list) == 0 {
		return list
	}
	out := make([]Experience, len(list))
	for i, exp := range list {
		out[i] = exp
		if len(exp.Responsibilities) == 0 {
			continue
		}
		out[i].Responsibilities = make([]string, len(exp.Responsibilities))
		for j, line := range exp.Responsibilities {
			out[i].Responsibilities[j] = masking.MaskText(line)
		}
	}
	return out
}

func toSearchResult(res Resume, authenticated bool) SearchResultResponse {
	out := SearchResultResponse{
		ID:         res.ID,
		FullName:   res.FullName(),
		Email:      res.Email,
		Phone:      res.Phone,
		City:       res.City,
		State:      res.State,
		Summary:    truncate(res.ProfessionalSummary, summaryPreviewLen),
		UploadedAt: res.UploadedAt,
	}
	if !authenticated {
		out.Email = res.MaskedEmail()
		out.Phone = res.MaskedPhone()
		// mask before truncating so a cut never splits a number out of reach
		out.Summary = truncate(masking.MaskText(res.ProfessionalSummary), summaryPreviewLen)
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
