package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagility/billingctl/internal/types"
)

func writeTempCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creds.csv")
	require.NoError(t, os.WriteFile(path, []byte("email,password\na@b.com,secret\n"), 0o644))
	return path
}

func TestCreateJob_MultipartFields(t *testing.T) {
	jobID := uuid.New()
	var gotPath string
	var form map[string]string
	var csvContent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		f, _, err := r.FormFile("csv")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		buf := make([]byte, 64)
		n, _ := f.Read(buf)
		csvContent = string(buf[:n])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "` + jobID.String() + `", "status": "idle"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	dow := 0
	hour := 9
	minute := 30
	job, err := c.CreateJob(context.Background(), types.CreateJobRequest{
		CSVPath:      writeTempCSV(t),
		LoginURL:     "https://portal.example.com/login",
		BillingURL:   "https://portal.example.com/billing",
		IsScheduled:  true,
		ScheduleType: types.ScheduleWeekly,
		ScheduleConfig: &types.ScheduleConfig{
			DayOfWeek: &dow,
			Hour:      &hour,
			Minute:    &minute,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, jobID, job.ID)
	assert.Equal(t, types.StatusIdle, job.Status)

	assert.Equal(t, "/api/jobs", gotPath)
	assert.Equal(t, "https://portal.example.com/login", form["login_url"])
	assert.Equal(t, "https://portal.example.com/billing", form["billing_url"])
	assert.Equal(t, "true", form["is_scheduled"])
	assert.Equal(t, "weekly", form["schedule_type"])
	assert.JSONEq(t, `{"day_of_week": 0, "hour": 9, "minute": 30}`, form["schedule_config"])
	assert.Contains(t, csvContent, "a@b.com")
}

func TestCreateJob_UnscheduledOmitsScheduleFields(t *testing.T) {
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		form = r.MultipartForm.Value
		_, _ = w.Write([]byte(`{"id": "` + uuid.NewString() + `", "status": "idle"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	_, err := c.CreateJob(context.Background(), types.CreateJobRequest{
		CSVPath:    writeTempCSV(t),
		LoginURL:   "https://portal.example.com/login",
		BillingURL: "https://portal.example.com/billing",
	})
	require.NoError(t, err)
	assert.NotContains(t, form, "is_scheduled")
	assert.NotContains(t, form, "schedule_type")
}

func TestCreateJob_ValidationBeforeNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	_, err := c.CreateJob(context.Background(), types.CreateJobRequest{LoginURL: "https://x.example.com"})
	require.Error(t, err)
	assert.False(t, called, "invalid request must not reach the server")
}

func TestJobLifecycleEndpoints(t *testing.T) {
	jobID := uuid.New()
	resultID := uuid.New()
	var calls []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/jobs" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id": "` + jobID.String() + `", "status": "running"}]`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{"message": "deleted", "deleted_count": 2}`))
		default:
			_, _ = w.Write([]byte(`{"id": "` + jobID.String() + `", "status": "stopped"}`))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	jobs, err := c.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, types.StatusRunning, jobs[0].Status)

	_, err = c.RunJob(ctx, jobID)
	require.NoError(t, err)
	_, err = c.StopJob(ctx, jobID)
	require.NoError(t, err)

	resp, err := c.DeleteAllResults(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.DeletedCount)
	_, err = c.DeleteResult(ctx, jobID, resultID)
	require.NoError(t, err)
	_, err = c.DeleteJob(ctx, jobID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /api/jobs",
		"POST /api/jobs/" + jobID.String() + "/run",
		"POST /api/jobs/" + jobID.String() + "/stop",
		"DELETE /api/jobs/" + jobID.String() + "/results",
		"DELETE /api/jobs/" + jobID.String() + "/results/" + resultID.String(),
		"DELETE /api/jobs/" + jobID.String(),
	}, calls)
}

func TestGetRealtimeStatus(t *testing.T) {
	jobID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/"+jobID.String()+"/realtime", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "` + jobID.String() + `", "status": "running", "results_count": 3}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	st, err := c.GetRealtimeStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, st.ResultsCount)
	assert.Equal(t, types.StatusRunning, st.Status)
}

func TestLogin_PostsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"access_token": "tok", "token_type": "bearer"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	resp, err := c.Login(context.Background(), types.LoginRequest{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
}

func TestLogin_RejectsInvalidEmailLocally(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", nil)
	_, err := c.Login(context.Background(), types.LoginRequest{Email: "nope", Password: "pw"})
	require.Error(t, err)
}
