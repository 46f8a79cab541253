package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"resume-portal/internal/bootstrap"
	"resume-portal/internal/resumes"
	"resume-portal/internal/users"
)

const importOwner = "resumectl"

func newSweepCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete resumes older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(app *bootstrap.App) error {
				var (
					deleted int64
					err     error
				)
				if days > 0 {
					deleted, err = app.ResumesService.DeleteOlderThan(ctx, days)
				} else {
					deleted, err = app.Scheduler.RunOnce(ctx)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d resumes\n", deleted)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Override RETENTION_DAYS for this run")
	return cmd
}

func newImportCmd() *cobra.Command {
	var firstName, lastName, city string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Upload resume files from disk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, func(app *bootstrap.App) error {
				for _, path := range args {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					profile := resumes.Profile{FirstName: firstName, LastName: lastName, City: city}
					if profile.FirstName == "" || profile.LastName == "" {
						profile.FirstName, profile.LastName = namesFromFile(path)
					}
					res, err := app.ResumesService.Upload(ctx, resumes.UploadInput{
						Owner:    importOwner,
						FileName: filepath.Base(path),
						Data:     data,
						Profile:  profile,
					})
					if err != nil {
						return fmt.Errorf("import %s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.ID, path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&firstName, "first-name", "", "Candidate first name (defaults to the file name)")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Candidate last name (defaults to the file name)")
	cmd.Flags().StringVar(&city, "city", "", "Candidate city")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		criteria resumes.SearchCriteria
		skills   string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored resumes; no flags lists everything",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if skills != "" {
				criteria.ProgrammingLanguages = strings.Split(skills, ",")
			}
			return withApp(ctx, func(app *bootstrap.App) error {
				found, err := app.ResumesService.Search(ctx, criteria)
				if err != nil {
					return err
				}
				return printResults(cmd, found, asJSON)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&criteria.Keyword, "keyword", "", "Substring of the summary")
	f.StringVar(&criteria.FullName, "name", "", "First or last name")
	f.StringVar(&criteria.Email, "email", "", "Exact email")
	f.StringVar(&criteria.City, "city", "", "City")
	f.StringVar(&criteria.State, "state", "", "State")
	f.StringVar(&criteria.AnySkill, "any-skill", "", "Substring of any skill")
	f.StringVar(&skills, "languages", "", "Comma separated programming languages")
	f.StringVar(&criteria.UploadedAfter, "uploaded-after", "", "Uploaded at or after (ISO date)")
	f.StringVar(&criteria.UploadedBefore, "uploaded-before", "", "Uploaded at or before (ISO date)")
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password PASSWORD",
		Short: "Print a bcrypt hash for an AUTH_ACCOUNTS entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := users.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func printResults(cmd *cobra.Command, found []resumes.Resume, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}
	if len(found) == 0 {
		fmt.Fprintln(out, "no resumes found")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCITY\tUPLOADED")
	for _, res := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", res.ID, res.FullName(), res.Email, res.City, res.UploadedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

// namesFromFile turns "jane_roe-cv.pdf" into ("Jane", "Roe-cv").
func namesFromFile(path string) (string, string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == ' ' || r == '.' })
	switch len(parts) {
	case 0:
		return "Unknown", "Candidate"
	case 1:
		return title(parts[0]), "Candidate"
	default:
		rest := make([]string, 0, len(parts)-1)
		for _, p := range parts[1:] {
			rest = append(rest, title(p))
		}
		return title(parts[0]), strings.Join(rest, " ")
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
