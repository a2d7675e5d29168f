package bills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagility/billingctl/internal/types"
)

type fakeBillsAPI struct {
	mu      sync.Mutex
	jobs    []types.Job
	details map[uuid.UUID]*types.JobDetail

	downloads   []string
	downloadCT  string
	deletedJobs []uuid.UUID
}

func (f *fakeBillsAPI) ListJobs(_ context.Context) ([]types.Job, error) {
	return f.jobs, nil
}

func (f *fakeBillsAPI) GetJobDetails(_ context.Context, jobID uuid.UUID) (*types.JobDetail, error) {
	d, ok := f.details[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return d, nil
}

func (f *fakeBillsAPI) DeleteJob(_ context.Context, jobID uuid.UUID) (*types.DeleteResponse, error) {
	f.mu.Lock()
	f.deletedJobs = append(f.deletedJobs, jobID)
	f.mu.Unlock()
	return &types.DeleteResponse{Message: "deleted"}, nil
}

func (f *fakeBillsAPI) DeleteAllResults(_ context.Context, _ uuid.UUID) (*types.DeleteResponse, error) {
	return &types.DeleteResponse{Message: "deleted", DeletedCount: 2}, nil
}

func (f *fakeBillsAPI) DeleteResult(_ context.Context, _, resultID uuid.UUID) (*types.DeleteResponse, error) {
	return &types.DeleteResponse{Message: "deleted", DeletedResultID: resultID.String()}, nil
}

func (f *fakeBillsAPI) Download(_ context.Context, fileURL string) ([]byte, string, error) {
	f.downloads = append(f.downloads, fileURL)
	ct := f.downloadCT
	if ct == "" {
		ct = "application/pdf"
	}
	return []byte("%PDF-1.4 fake"), ct, nil
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", SanitizeEmail("user@example.com"))
	assert.Equal(t, "user_name@example.com", SanitizeEmail("user name@example.com"))
	assert.Equal(t, "a_b_c@x.io", SanitizeEmail("a/b\\c@x.io"))
	assert.Equal(t, "user.name_tag@x.io", SanitizeEmail("user.name+tag@x.io"))
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 7, 4, 18, 30, 45, 0, time.UTC)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "bill_a@b.com_2026-07-04T18-30-45.pdf", Filename("a@b.com", &ts, now))
	// Results without a timestamp fall back to the current time.
	assert.Equal(t, "bill_a@b.com_2026-08-30T10-00-00.pdf", Filename("a@b.com", nil, now))
}

func TestWithResults(t *testing.T) {
	jobs := []types.Job{
		{ID: uuid.New(), Status: types.StatusIdle},
		{ID: uuid.New(), Status: types.StatusRunning},
		{ID: uuid.New(), Status: types.StatusRunning, ResultsCount: 2},
		{ID: uuid.New(), Status: types.StatusCompleted},
		{ID: uuid.New(), Status: types.StatusStopped},
		{ID: uuid.New(), Status: types.StatusError},
	}
	got := WithResults(jobs)
	require.Len(t, got, 4)
	for _, j := range got {
		assert.True(t, j.Status != types.StatusIdle || j.ResultsCount > 0)
	}
}

func TestView_DownloadWritesPDF(t *testing.T) {
	dir := t.TempDir()
	api := &fakeBillsAPI{downloadCT: "application/octet-stream"}
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	v := NewView(api, dir, func() time.Time { return now })

	created := time.Date(2026, 7, 4, 18, 30, 45, 0, time.UTC)
	r := types.JobResult{
		ID:        uuid.New(),
		Email:     "user name@example.com",
		ProxyURL:  "/files/abc.pdf",
		CreatedAt: &created,
	}
	path, err := v.Download(context.Background(), r)
	require.NoError(t, err)

	// Name comes from the sanitized email and always ends .pdf, no matter
	// what content type the server claimed.
	assert.Equal(t, "bill_user_name@example.com_2026-07-04T18-30-45.pdf", filepath.Base(path))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), data)
	assert.Equal(t, []string{"/files/abc.pdf"}, api.downloads)
}

func TestView_DownloadPrefersProxyURL(t *testing.T) {
	api := &fakeBillsAPI{}
	v := NewView(api, t.TempDir(), nil)

	r := types.JobResult{
		ID:       uuid.New(),
		Email:    "a@b.com",
		FileURL:  "https://storage.example.com/signed/abc",
		ProxyURL: "/files/abc.pdf",
	}
	_, err := v.Download(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []string{"/files/abc.pdf"}, api.downloads)
}

func TestView_DownloadNoFile(t *testing.T) {
	v := NewView(&fakeBillsAPI{}, t.TempDir(), nil)
	_, err := v.Download(context.Background(), types.JobResult{ID: uuid.New(), Email: "a@b.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file")
}

func TestView_OpenWritesTempPDF(t *testing.T) {
	v := NewView(&fakeBillsAPI{}, t.TempDir(), nil)
	r := types.JobResult{ID: uuid.New(), Email: "a@b.com", FileURL: "https://storage.example.com/x"}

	path, err := v.Open(context.Background(), r)
	require.NoError(t, err)
	defer func() { _ = os.Remove(path) }()
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestView_ListWithResults(t *testing.T) {
	api := &fakeBillsAPI{jobs: []types.Job{
		{ID: uuid.New(), Status: types.StatusIdle},
		{ID: uuid.New(), Status: types.StatusCompleted},
	}}
	v := NewView(api, t.TempDir(), nil)

	jobs, err := v.ListWithResults(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, types.StatusCompleted, jobs[0].Status)
}

func TestView_DeleteJobs(t *testing.T) {
	api := &fakeBillsAPI{}
	v := NewView(api, t.TempDir(), nil)
	jobs := []types.Job{
		{ID: uuid.New(), Status: types.StatusCompleted},
		{ID: uuid.New(), Status: types.StatusStopped},
		{ID: uuid.New(), Status: types.StatusError},
	}
	require.NoError(t, v.DeleteJobs(context.Background(), jobs))
	assert.Len(t, api.deletedJobs, 3)
}
