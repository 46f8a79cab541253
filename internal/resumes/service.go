package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-portal/internal/contacts"
	"resume-portal/internal/convert"
	"resume-portal/internal/masking"
	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/storage/object"
	"resume-portal/internal/shared/telemetry"
)

const noContentHTML = "<div>No content available</div>"

// Service contains business logic for resumes.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Converter *convert.Converter
	Searcher  *Searcher
	Now       func() time.Time
}

// NewService wires a Service with a Searcher over the same repo.
func NewService(repo Repo, store object.ObjectStore, converter *convert.Converter) *Service {
	return &Service{
		Repo:      repo,
		Store:     store,
		Converter: converter,
		Searcher:  NewSearcher(repo),
		Now:       time.Now,
	}
}

// Profile carries the fields an uploader may fill in by hand.
type Profile struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	City                string
	State               string
	Country             string
	LinkedInURL         string
	WebsiteURL          string
	ProfessionalSummary string
	Skills              Skills
}

// UploadInput is one uploaded file plus its profile.
type UploadInput struct {
	Owner       string
	FileName    string
	ContentType string
	Data        []byte
	Profile     Profile
}

// Upload converts and stores a resume. First and last name are required.
// Contact details missing from the profile are filled from the text.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Resume, error) {
	p := in.Profile
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" || p.LastName == "" {
		return Resume{}, fmt.Errorf("%w: firstName and lastName are required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FileName) == "" || len(in.Data) == 0 {
		return Resume{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if err := s.Converter.CheckSize(int64(len(in.Data))); err != nil {
		return Resume{}, err
	}

	text, err := s.Converter.Convert(ctx, in.Data, in.ContentType, in.FileName)
	switch {
	case err == nil:
	case errors.Is(err, convert.ErrOversized), errors.Is(err, convert.ErrUnsupportedType):
		return Resume{}, err
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Resume{}, ctxErr
		}
		telemetry.Warn("resume.convert_failed", map[string]any{
			"file_name": in.FileName,
			"error":     err.Error(),
		})
		text = ""
	}

	obj, err := s.Store.Save(ctx, in.Owner, in.FileName, bytes.NewReader(in.Data), int64(len(in.Data)))
	if err != nil {
		return Resume{}, fmt.Errorf("store resume file: %w", err)
	}

	res := Resume{
		ID:                  uuid.NewString(),
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		Email:               strings.TrimSpace(p.Email),
		Phone:               strings.TrimSpace(p.Phone),
		City:                strings.TrimSpace(p.City),
		State:               strings.TrimSpace(p.State),
		Country:             strings.TrimSpace(p.Country),
		LinkedInURL:         strings.TrimSpace(p.LinkedInURL),
		WebsiteURL:          strings.TrimSpace(p.WebsiteURL),
		ProfessionalSummary: strings.TrimSpace(p.ProfessionalSummary),
		Skills:              p.Skills,
		OriginalFileName:    in.FileName,
		FileType:            convert.NormalizeMimeType(in.ContentType, in.FileName, in.Data),
		OriginalFileSize:    obj.Size,
		StorageKey:          obj.Key,
		UploadedAt:          s.now(),
		UploadedBy:          in.Owner,
		Text:                text,
	}
	if text != "" {
		res.HTMLContent = convert.RenderHTML(res.FullName(), text)
		fillContacts(&res, contacts.Extract(text))
	}

	saved, err := s.Repo.Save(ctx, res)
	if err != nil {
		if delErr := s.Store.Delete(ctx, obj.Key); delErr != nil {
			telemetry.Error("resume.orphaned_object", map[string]any{"key": obj.Key, "error": delErr.Error()})
		}
		return Resume{}, fmt.Errorf("save resume: %w", err)
	}

	metrics.ResumesUploaded.Inc()
	telemetry.Info("resume.uploaded", map[string]any{
		"resume_id":  saved.ID,
		"file_type":  saved.FileType,
		"size_bytes": saved.OriginalFileSize,
	})
	return saved, nil
}

func fillContacts(res *Resume, c contacts.Contact) {
	if res.Email == "" {
		res.Email = c.Email
	}
	if res.Phone == "" {
		res.Phone = c.Phone
	}
	if res.LinkedInURL == "" {
		res.LinkedInURL = c.LinkedIn
	}
}

// Get returns a resume by id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Resume, error) {
	if strings.TrimSpace(id) == "" {
		return Resume{}, ErrNotFound
	}
	return s.Repo.FindByID(ctx, id)
}

// List returns every resume.
func (s *Service) List(ctx context.Context) ([]Resume, error) {
	return s.Repo.FindAll(ctx)
}

// Search delegates to the Searcher.
func (s *Service) Search(ctx context.Context, c SearchCriteria) ([]Resume, error) {
	return s.Searcher.Search(ctx, c)
}

// Content returns the renderable page, masked when requested.
func (s *Service) Content(ctx context.Context, id string, masked bool) (string, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	page := res.HTMLContent
	if page == "" {
		return noContentHTML, nil
	}
	if masked {
		metrics.MaskedViews.Inc()
		return masking.MaskHTML(page), nil
	}
	return page, nil
}

// Open returns the resume and a reader over its original file.
func (s *Service) Open(ctx context.Context, id string) (Resume, io.ReadCloser, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return Resume{}, nil, err
	}
	rc, err := s.Store.Open(ctx, res.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Resume{}, nil, fmt.Errorf("%w: file for resume %s", ErrNotFound, id)
		}
		return Resume{}, nil, err
	}
	return res, rc, nil
}

// Delete removes the record and then its file.
func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.deleteObject(ctx, res.StorageKey)
	return nil
}

// DeleteOlderThan removes resumes uploaded more than days ago and returns how
// many records were deleted.
func (s *Service) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: retention days must be positive", ErrInvalidInput)
	}
	cutoff := s.now().AddDate(0, 0, -days)

	expired, err := s.Repo.Find(ctx, UploadedBetween(time.Time{}, cutoff))
	if err != nil {
		return 0, fmt.Errorf("list expired resumes: %w", err)
	}
	deleted, err := s.Repo.DeleteUploadedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired resumes: %w", err)
	}
	for _, res := range expired {
		if res.UploadedAt.Before(cutoff) {
			s.deleteObject(ctx, res.StorageKey)
		}
	}
	return deleted, nil
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Error("resume.object_delete_failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
