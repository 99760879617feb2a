package engine

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-escalator/internal/appwrite"
	"booking-escalator/internal/config"
	"booking-escalator/internal/metrics"
)

type updateCall struct {
	databaseID   string
	collectionID string
	documentID   string
	data         map[string]any
	permissions  []string
}

type fakeUpdater struct {
	mu    sync.Mutex
	calls []updateCall
	err   error
}

func (f *fakeUpdater) UpdateDocument(_ context.Context, databaseID, collectionID, documentID string, data map[string]any, permissions []string) (*appwrite.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, updateCall{databaseID, collectionID, documentID, data, append([]string(nil), permissions...)})
	if f.err != nil {
		return nil, f.err
	}
	return &appwrite.Document{ID: documentID, Permissions: permissions}, nil
}

func (f *fakeUpdater) factory(*config.Function) DocumentUpdater { return f }

type recordingReporter struct {
	logs   []string
	errors []string
}

func (r *recordingReporter) Log(msg string)   { r.logs = append(r.logs, msg) }
func (r *recordingReporter) Error(msg string) { r.errors = append(r.errors, msg) }

func testFunctionConfig() *config.Function {
	return &config.Function{
		Endpoint:            "https://db.example.com/v1",
		APIKey:              "key",
		ProjectID:           "proj",
		OwnerTeamID:         "team1",
		DatabaseID:          "db1",
		BookingCollectionID: "bookings",
	}
}

func staticConfig() (*config.Function, error) { return testFunctionConfig(), nil }

func setFunctionEnv(t *testing.T) {
	t.Helper()
	values := map[string]string{
		"APPWRITE_FUNCTION_ENDPOINT":   "https://db.example.com/v1",
		"APPWRITE_FUNCTION_API_KEY":    "key",
		"APPWRITE_FUNCTION_PROJECT_ID": "proj",
		"OWNER_TEAM_ID":                "team1",
		"DATABASE_ID":                  "db1",
		"BOOKINGS_COLLECTION_ID":       "bookings",
	}
	for k, v := range values {
		t.Setenv(k, v)
	}
}

const samplePayload = `{"$id":"abc123","$permissions":["read(\"any\")"],"$collectionId":"bookings","$databaseId":"db1","guest":"Ada"}`

func TestHandle_MissingConfigurationValue(t *testing.T) {
	for _, name := range config.EnvNames() {
		t.Run(name, func(t *testing.T) {
			setFunctionEnv(t)
			t.Setenv(name, "")

			up := &fakeUpdater{}
			rep := &recordingReporter{}
			res := NewEscalator(nil, up.factory).Handle(context.Background(), &Request{BodyRaw: samplePayload, Reporter: rep})

			assert.Equal(t, http.StatusInternalServerError, res.Status)
			assert.False(t, res.Response.Success)
			assert.Contains(t, res.Response.Message, "incomplete")
			assert.Contains(t, res.Response.Message, name)
			assert.Empty(t, up.calls)
			require.Len(t, rep.errors, 1)
		})
	}
}

func TestHandle_ConfigurationCheckedBeforePayload(t *testing.T) {
	up := &fakeUpdater{}
	failing := func() (*config.Function, error) {
		return nil, &config.MissingError{Vars: []string{"OWNER_TEAM_ID"}}
	}
	res := NewEscalator(failing, up.factory).Handle(context.Background(), &Request{Reporter: &recordingReporter{}})
	assert.Contains(t, res.Response.Message, "incomplete")
	assert.NotContains(t, res.Response.Message, "payload")
}

func TestHandle_MergesOwnerPermissions(t *testing.T) {
	up := &fakeUpdater{}
	rep := &recordingReporter{}
	res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{BodyRaw: samplePayload, Reporter: rep})

	require.Equal(t, http.StatusOK, res.Status)
	assert.True(t, res.Response.Success)
	assert.NotEmpty(t, res.Response.Message)

	require.Len(t, up.calls, 1)
	call := up.calls[0]
	assert.Equal(t, "db1", call.databaseID)
	assert.Equal(t, "bookings", call.collectionID)
	assert.Equal(t, "abc123", call.documentID)
	assert.Nil(t, call.data, "document data must not be modified")
	assert.ElementsMatch(t, []string{`read("any")`, `read("team:team1")`, `update("team:team1")`}, call.permissions)

	assert.Empty(t, rep.errors)
	assert.Len(t, rep.logs, 2)
	assert.Contains(t, rep.logs[0], "abc123")
}

func TestHandle_Idempotent(t *testing.T) {
	up := &fakeUpdater{}
	esc := NewEscalator(staticConfig, up.factory)

	res := esc.Handle(context.Background(), &Request{BodyRaw: samplePayload, Reporter: &recordingReporter{}})
	require.True(t, res.Response.Success)
	first := up.calls[0].permissions

	again := `{"$id":"abc123","$permissions":["read(\"any\")","read(\"team:team1\")","update(\"team:team1\")"]}`
	res = esc.Handle(context.Background(), &Request{BodyRaw: again, Reporter: &recordingReporter{}})
	require.True(t, res.Response.Success)
	require.Len(t, up.calls, 2)
	assert.ElementsMatch(t, first, up.calls[1].permissions)
	assert.Len(t, up.calls[1].permissions, 3)
}

func TestHandle_PayloadMissing(t *testing.T) {
	cases := map[string]*Request{
		"absent":          {},
		"empty":           {BodyRaw: "", Payload: ""},
		"whitespace only": {BodyRaw: "   \n\t", Payload: "  "},
		"blank body":      {BodyRaw: "   ", Payload: samplePayload},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			up := &fakeUpdater{}
			rep := &recordingReporter{}
			req.Reporter = rep
			res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), req)

			assert.Equal(t, http.StatusInternalServerError, res.Status)
			assert.False(t, res.Response.Success)
			assert.Contains(t, res.Response.Message, "payload is empty")
			assert.Empty(t, up.calls)
			assert.Len(t, rep.errors, 1)
		})
	}
}

func TestHandle_PayloadFallbackField(t *testing.T) {
	up := &fakeUpdater{}
	res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{Payload: samplePayload, Reporter: &recordingReporter{}})
	require.True(t, res.Response.Success)
	require.Len(t, up.calls, 1)
	assert.Equal(t, "abc123", up.calls[0].documentID)
}

func TestHandle_BodyRawPreferredOverPayload(t *testing.T) {
	up := &fakeUpdater{}
	other := `{"$id":"other","$permissions":["read(\"any\")"]}`
	res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{BodyRaw: samplePayload, Payload: other, Reporter: &recordingReporter{}})
	require.True(t, res.Response.Success)
	assert.Equal(t, "abc123", up.calls[0].documentID)
}

func TestHandle_PayloadParseError(t *testing.T) {
	up := &fakeUpdater{}
	res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{BodyRaw: `{"$id": "abc123",`, Reporter: &recordingReporter{}})

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.False(t, res.Response.Success)
	assert.Contains(t, res.Response.Message, "unexpected end of JSON input")
	assert.Empty(t, up.calls)
}

func TestHandle_PayloadInvalid(t *testing.T) {
	cases := map[string]string{
		"missing id":          `{"$permissions":["read(\"any\")"]}`,
		"empty id":            `{"$id":"","$permissions":["read(\"any\")"]}`,
		"missing permissions": `{"$id":"abc123"}`,
		"null permissions":    `{"$id":"abc123","$permissions":null}`,
		"empty permissions":   `{"$id":"abc123","$permissions":[]}`,
		"not an object":       `42`,
		"null document":       `null`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			up := &fakeUpdater{}
			res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{BodyRaw: body, Reporter: &recordingReporter{}})
			assert.Equal(t, http.StatusInternalServerError, res.Status)
			assert.False(t, res.Response.Success)
			assert.Contains(t, res.Response.Message, "$id and $permissions")
			assert.Empty(t, up.calls)
		})
	}
}

func TestHandle_RemoteFailure(t *testing.T) {
	up := &fakeUpdater{err: errors.New("dial tcp 10.0.0.1:443: connect: network is unreachable")}
	rep := &recordingReporter{}
	res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{BodyRaw: samplePayload, Reporter: rep})

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, Response{Success: false, Message: "dial tcp 10.0.0.1:443: connect: network is unreachable"}, res.Response)
	assert.Len(t, up.calls, 1, "no retries")
	require.Len(t, rep.errors, 1)
	assert.Contains(t, rep.errors[0], "network is unreachable")
}

func TestHandle_RemoteAPIErrorMessagePassedThrough(t *testing.T) {
	up := &fakeUpdater{err: &appwrite.Error{Code: 401, Type: "user_unauthorized", Message: "The current user is not authorized to perform the requested action."}}
	res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{BodyRaw: samplePayload, Reporter: &recordingReporter{}})
	assert.Equal(t, "The current user is not authorized to perform the requested action.", res.Response.Message)
}

func TestHandle_GuardSkips(t *testing.T) {
	guard, err := NewGuard(`event endsWith ".create"`)
	require.NoError(t, err)

	up := &fakeUpdater{}
	esc := NewEscalator(staticConfig, up.factory, WithGuard(guard))

	res := esc.Handle(context.Background(), &Request{BodyRaw: samplePayload, Event: "databases.db1.collections.bookings.documents.abc123.update", Reporter: &recordingReporter{}})
	assert.Equal(t, http.StatusOK, res.Status)
	assert.True(t, res.Response.Success)
	assert.Contains(t, res.Response.Message, "skipped")
	assert.Empty(t, up.calls)

	res = esc.Handle(context.Background(), &Request{BodyRaw: samplePayload, Event: "databases.db1.collections.bookings.documents.abc123.create", Reporter: &recordingReporter{}})
	assert.True(t, res.Response.Success)
	assert.Len(t, up.calls, 1)
}

func TestHandle_GuardEvaluationError(t *testing.T) {
	guard, err := NewGuard(`record.guest.name == "x"`)
	require.NoError(t, err)

	up := &fakeUpdater{}
	res := NewEscalator(staticConfig, up.factory, WithGuard(guard)).Handle(context.Background(), &Request{BodyRaw: samplePayload, Reporter: &recordingReporter{}})
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Contains(t, res.Response.Message, "Trigger condition failed")
	assert.Empty(t, up.calls)
}

func TestHandle_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	up := &fakeUpdater{}
	esc := NewEscalator(staticConfig, up.factory, WithMetrics(rec))

	esc.Handle(context.Background(), &Request{BodyRaw: samplePayload, Reporter: &recordingReporter{}})
	esc.Handle(context.Background(), &Request{Reporter: &recordingReporter{}})

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]bool{}
	for _, f := range families {
		got[f.GetName()] = true
	}
	assert.True(t, got["escalator_invocations_total"])
	assert.True(t, got["escalator_permissions_granted_total"])
	assert.True(t, got["escalator_remote_update_duration_seconds"])
}

func TestHandle_DefaultReporter(t *testing.T) {
	up := &fakeUpdater{}
	res := NewEscalator(staticConfig, up.factory).Handle(context.Background(), &Request{BodyRaw: samplePayload})
	assert.True(t, res.Response.Success)
}
