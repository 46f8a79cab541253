package resumes

import (
	"encoding/csv"
	"io"
	"strings"
)

const fallbackCandidateName = "Resume Candidate"

var exportHeader = []string{"Name", "Email", "Phone", "Search Term"}

// WriteCSV writes one row per resume with the search term that found it.
func WriteCSV(w io.Writer, list []Resume, term string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, res := range list {
		row := []string{ExportName(res), res.Email, res.Phone, term}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportName falls back to the user part of the email, then a placeholder.
func ExportName(res Resume) string {
	if name := res.FullName(); name != "" {
		return name
	}
	if at := strings.IndexByte(res.Email, '@'); at > 0 {
		return res.Email[:at]
	}
	return fallbackCandidateName
}
