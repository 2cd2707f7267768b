package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"jobportal/internal/model"
	"jobportal/internal/storage"
)

// fakeStorage validates and records uploads without touching disk.
type fakeStorage struct {
	mu      sync.Mutex
	saved   []model.FileMeta
	deleted []model.FileMeta
	saveErr error
}

func (s *fakeStorage) Save(_ context.Context, kind storage.Kind, fh *multipart.FileHeader) (model.FileMeta, error) {
	if err := storage.Validate(kind, fh); err != nil {
		return model.FileMeta{}, err
	}
	if s.saveErr != nil {
		return model.FileMeta{}, s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	meta := model.FileMeta{
		Filename:     string(kind) + "-" + fh.Filename,
		OriginalName: fh.Filename,
		Path:         "/tmp/" + string(kind) + "/" + fh.Filename,
		URL:          "/uploads/" + string(kind) + "/" + fh.Filename,
		Size:         fh.Size,
		MimeType:     fh.Header.Get("Content-Type"),
		Backend:      "fake",
	}
	s.saved = append(s.saved, meta)
	return meta, nil
}

func (s *fakeStorage) Delete(_ context.Context, meta model.FileMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, meta)
	return nil
}

func (s *fakeStorage) deletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deleted)
}

var _ storage.Storage = (*fakeStorage)(nil)

// uploadHeader builds a multipart.FileHeader the way an HTTP request would.
func uploadHeader(t *testing.T, name, contentType string, size int) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func pdf(t *testing.T, name string) *multipart.FileHeader {
	return uploadHeader(t, name, "application/pdf", 1024)
}

var nopLog = zerolog.Nop()

// portal is a seeded store with one user per role and an open job.
type portal struct {
	store    *fakeStore
	files    *fakeStorage
	student  *model.User
	other    *model.User
	employer *model.User
	admin    *model.User
	job      *model.Job
}

func newPortal() *portal {
	s := newFakeStore()
	p := &portal{store: s, files: &fakeStorage{}}
	p.student = s.addUser(model.User{Name: "Asha", Role: model.RoleStudent})
	p.other = s.addUser(model.User{Name: "Ravi", Role: model.RoleStudent})
	p.employer = s.addUser(model.User{Name: "Meera", Role: model.RoleEmployer})
	p.employer.SetEmployer(model.EmployerDetails{ShopName: "Meera Stores"})
	s.db().users[p.employer.ID] = *p.employer
	p.admin = s.addUser(model.User{Name: "Admin", Role: model.RoleAdmin})
	p.job = s.addJob(model.Job{
		Title:               "Clerk",
		Department:          "Revenue",
		Location:            "Pune",
		Category:            "clerical",
		ApplicationDeadline: time.Now().Add(7 * 24 * time.Hour),
		IsActive:            true,
		PostedBy:            p.employer.ID,
		Shopkeeper:          "Meera Stores",
	})
	return p
}

func (p *portal) applications() ApplicationService {
	return NewApplicationService(p.store, p.files, nil, nopLog)
}
