package resumes

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"resume-portal/internal/convert"
	"resume-portal/internal/shared/storage/object"
	localstore "resume-portal/internal/shared/storage/object/local"
)

const sampleText = `Jane Roe
jane.roe@example.com | 9876543210
linkedin.com/in/janeroe
Backend engineer, Austin TX`

func newTestService(t *testing.T, repo Repo) (*Service, *localstore.Store) {
	t.Helper()
	store := localstore.New(t.TempDir())
	svc := NewService(repo, store, convert.New(0))
	svc.Now = func() time.Time { return baseTime }
	svc.Searcher.Now = svc.Now
	return svc, store
}

func uploadSample(t *testing.T, svc *Service) Resume {
	t.Helper()
	res, err := svc.Upload(context.Background(), UploadInput{
		Owner:       "user-1",
		FileName:    "jane.txt",
		ContentType: "text/plain",
		Data:        []byte(sampleText),
		Profile:     Profile{FirstName: " Jane ", LastName: "Roe", City: "Austin"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return res
}

func TestUploadStoresAndExtracts(t *testing.T) {
	svc, store := newTestService(t, NewMemoryRepo())
	res := uploadSample(t, svc)

	if res.ID == "" || res.StorageKey == "" {
		t.Fatalf("expected id and storage key, got %+v", res)
	}
	if res.FirstName != "Jane" {
		t.Fatalf("expected trimmed first name, got %q", res.FirstName)
	}
	if res.Email != "jane.roe@example.com" || res.Phone != "9876543210" {
		t.Fatalf("expected contacts filled from text, got %q %q", res.Email, res.Phone)
	}
	if res.LinkedInURL != "linkedin.com/in/janeroe" {
		t.Fatalf("unexpected linkedin %q", res.LinkedInURL)
	}
	if !res.UploadedAt.Equal(baseTime) {
		t.Fatalf("unexpected uploadedAt %v", res.UploadedAt)
	}
	if res.OriginalFileSize != int64(len(sampleText)) || res.FileType != convert.MimeText {
		t.Fatalf("unexpected file metadata %d %q", res.OriginalFileSize, res.FileType)
	}
	if !strings.Contains(res.HTMLContent, "jane.roe@example.com") {
		t.Fatalf("expected rendered html to contain text")
	}

	rc, err := store.Open(context.Background(), res.StorageKey)
	if err != nil {
		t.Fatalf("open stored object: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != sampleText {
		t.Fatalf("stored payload mismatch")
	}
}

func TestUploadKeepsProfileContacts(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo())
	res, err := svc.Upload(context.Background(), UploadInput{
		FileName: "jane.txt",
		Data:     []byte(sampleText),
		Profile:  Profile{FirstName: "Jane", LastName: "Roe", Email: "jr@corp.test"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.Email != "jr@corp.test" {
		t.Fatalf("profile email overwritten: %q", res.Email)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo())
	svc.Converter = convert.New(16)

	cases := []struct {
		name string
		in   UploadInput
		want error
	}{
		{"missing last name", UploadInput{FileName: "a.txt", Data: []byte("hi"), Profile: Profile{FirstName: "A"}}, ErrInvalidInput},
		{"missing file", UploadInput{Profile: Profile{FirstName: "A", LastName: "B"}}, ErrInvalidInput},
		{"oversized", UploadInput{FileName: "a.txt", Data: make([]byte, 17), Profile: Profile{FirstName: "A", LastName: "B"}}, convert.ErrOversized},
		{"unsupported", UploadInput{FileName: "a.png", ContentType: "image/png", Data: []byte("x"), Profile: Profile{FirstName: "A", LastName: "B"}}, convert.ErrUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Upload(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	all, _ := svc.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected nothing saved, got %d", len(all))
	}
}

func TestUploadUnreadableDocumentStillSaved(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo())
	res, err := svc.Upload(context.Background(), UploadInput{
		FileName:    "broken.pdf",
		ContentType: convert.MimePDF,
		Data:        []byte("%PDF-not really"),
		Profile:     Profile{FirstName: "A", LastName: "B"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.HTMLContent != "" {
		t.Fatalf("expected no content for unreadable pdf")
	}
	page, err := svc.Content(context.Background(), res.ID, true)
	if err != nil || page != noContentHTML {
		t.Fatalf("expected placeholder content, got %q %v", page, err)
	}
}

func TestUploadRepoFailureRemovesObject(t *testing.T) {
	boom := errors.New("write conflict")
	repo := &failingRepo{MemoryRepo: NewMemoryRepo(), err: boom}
	svc, store := newTestService(t, repo)
	svc.Store = &recordingStore{ObjectStore: store}

	_, err := svc.Upload(context.Background(), UploadInput{
		FileName: "a.txt",
		Data:     []byte("text"),
		Profile:  Profile{FirstName: "A", LastName: "B"},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected repo error, got %v", err)
	}
	rs := svc.Store.(*recordingStore)
	if len(rs.deleted) != 1 || rs.deleted[0] != rs.saved[0] {
		t.Fatalf("expected stored object removed, saved=%v deleted=%v", rs.saved, rs.deleted)
	}
}

func TestContentMasking(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo())
	res := uploadSample(t, svc)

	masked, err := svc.Content(context.Background(), res.ID, true)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if strings.Contains(masked, "jane.roe@example.com") || !strings.Contains(masked, "jan***@mail") {
		t.Fatalf("expected masked email in page")
	}
	if !strings.Contains(masked, "******3210") {
		t.Fatalf("expected masked phone in page")
	}

	plain, err := svc.Content(context.Background(), res.ID, false)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if !strings.Contains(plain, "jane.roe@example.com") {
		t.Fatalf("expected unmasked page")
	}

	if _, err := svc.Content(context.Background(), "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesRecordAndObject(t *testing.T) {
	svc, store := newTestService(t, NewMemoryRepo())
	res := uploadSample(t, svc)

	if err := svc.Delete(context.Background(), res.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := store.Open(context.Background(), res.StorageKey); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected object removed, got %v", err)
	}
	if err := svc.Delete(context.Background(), res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOpenStreamsPayload(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo())
	res := uploadSample(t, svc)

	got, rc, err := svc.Open(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	if got.ID != res.ID {
		t.Fatalf("unexpected record %s", got.ID)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != sampleText {
		t.Fatalf("payload mismatch")
	}
}

func TestDeleteOlderThan(t *testing.T) {
	svc, store := newTestService(t, NewMemoryRepo())
	old := uploadSample(t, svc)
	svc.Now = func() time.Time { return baseTime.AddDate(0, 0, 200) }
	fresh := uploadSample(t, svc)

	if _, err := svc.DeleteOlderThan(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero days, got %v", err)
	}

	deleted, err := svc.DeleteOlderThan(context.Background(), 180)
	if err != nil {
		t.Fatalf("delete older: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	if _, err := svc.Get(context.Background(), old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old resume removed")
	}
	if _, err := store.Open(context.Background(), old.StorageKey); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected old object removed, got %v", err)
	}
	if _, err := svc.Get(context.Background(), fresh.ID); err != nil {
		t.Fatalf("expected fresh resume kept: %v", err)
	}
}

type recordingStore struct {
	object.ObjectStore
	saved   []string
	deleted []string
}

func (r *recordingStore) Save(ctx context.Context, owner, fileName string, rd io.Reader, size int64) (object.Object, error) {
	obj, err := r.ObjectStore.Save(ctx, owner, fileName, rd, size)
	if err == nil {
		r.saved = append(r.saved, obj.Key)
	}
	return obj, err
}

func (r *recordingStore) Delete(ctx context.Context, key string) error {
	r.deleted = append(r.deleted, key)
	return r.ObjectStore.Delete(ctx, key)
}
