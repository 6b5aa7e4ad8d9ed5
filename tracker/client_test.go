package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRequester answers every call with respond and records it.
type recordingRequester struct {
	mu      sync.Mutex
	calls   []recordedCall
	closed  int
	respond func(method, uri string) ([]byte, error)
}

type recordedCall struct {
	method string
	uri    string
	params url.Values
	body   map[string]any
}

func (r *recordingRequester) Request(_ context.Context, method, uri string, params url.Values, body Body) ([]byte, error) {
	call := recordedCall{method: method, uri: uri, params: params}
	if body != nil {
		reader, _, err := body.Encode()
		if err != nil {
			return nil, err
		}
		data, _ := io.ReadAll(reader)
		if err := json.Unmarshal(data, &call.body); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	return r.respond(method, uri)
}

func (r *recordingRequester) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *recordingRequester) last() recordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newRecordingClient(t *testing.T, respond func(method, uri string) ([]byte, error)) (*Client, *recordingRequester) {
	t.Helper()
	req := &recordingRequester{respond: respond}
	c, err := NewClient("", "", WithRequester(req), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return c, req
}

func respondWith(body string) func(string, string) ([]byte, error) {
	return func(string, string) ([]byte, error) { return []byte(body), nil }
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		orgID   string
		token   string
		opts    []Option
		wantErr bool
	}{
		{name: "org and token", orgID: "42", token: "T"},
		{name: "missing token", orgID: "42", wantErr: true},
		{name: "missing org", token: "T", wantErr: true},
		{name: "requester only", opts: []Option{WithRequester(&recordingRequester{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.orgID, tt.token, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("42", "T")
	require.NoError(t, err)

	conn, ok := c.conn.(*httpConn)
	require.True(t, ok)
	assert.Equal(t, DefaultAPIHost, conn.baseURL)
	assert.Equal(t, DefaultAPIVersion, conn.version)
	assert.Equal(t, DefaultCloseGrace, conn.closeGrace)
	assert.Equal(t, "42", conn.headers.Get("X-Org-Id"))
	assert.Equal(t, "https://api.tracker.yandex.net/v2/issues/A-1", conn.resolve("/issues/A-1"))
	assert.Equal(t, "https://api.tracker.yandex.net/v2/issues/A-1", conn.resolve("issues/A-1"))
	assert.Equal(t, "https://elsewhere/x", conn.resolve("https://elsewhere/x"))
	assert.NoError(t, c.Close())
}

func TestClientCloseDelegates(t *testing.T) {
	c, req := newRecordingClient(t, respondWith("{}"))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 2, req.closed)
}

func TestCreateIssuePayload(t *testing.T) {
	c, req := newRecordingClient(t, respondWith(fullIssueJSON))

	issue, err := c.CreateIssue(context.Background(), CreateIssueParams{Summary: "S", Queue: "Q"})
	require.NoError(t, err)
	assert.Equal(t, "KEY-1", issue.Key)

	call := req.last()
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/issues/", call.uri)
	assert.Equal(t, map[string]any{"summary": "S", "queue": "Q"}, call.body)
}

func TestCreateIssueFullPayload(t *testing.T) {
	c, req := newRecordingClient(t, respondWith(fullIssueJSON))

	_, err := c.CreateIssue(context.Background(), CreateIssueParams{
		Summary:       "S",
		Queue:         "Q",
		Parent:        &Issue{URL: "https://x/P-1", ID: "1", Key: "P-1", Display: "P"},
		Type:          "bug",
		Priority:      "minor",
		Followers:     []string{"user1"},
		Unique:        "u-1",
		AttachmentIDs: []string{"10"},
		Extra:         Fields{"story_points": 3},
	})
	require.NoError(t, err)

	body := req.last().body
	assert.Equal(t, "bug", body["type"])
	assert.Equal(t, "minor", body["priority"])
	assert.Equal(t, "u-1", body["unique"])
	assert.Equal(t, []any{"10"}, body["attachmentIds"])
	assert.Equal(t, []any{"user1"}, body["followers"])
	assert.Equal(t, float64(3), body["storyPoints"])
	assert.Equal(t, "P-1", body["parent"].(map[string]any)["key"])
	assert.NotContains(t, body, "self")
}

type supportIssue struct {
	FullIssue
	CustomerID string `json:"61f2e5d1--customerId,omitempty"`
}

func TestCreateIssueAsCustomType(t *testing.T) {
	response := strings.Replace(fullIssueJSON, `"votes": 0,`, `"votes": 0, "61f2e5d1--customerId": "c-42",`, 1)
	c, req := newRecordingClient(t, respondWith(response))

	issue, err := CreateIssueAs[supportIssue](context.Background(), c, CreateIssueParams{
		Summary: "S",
		Queue:   "SUPPORT",
		Extra:   Fields{"customer_id": "c-42", "not_declared": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "c-42", issue.CustomerID)
	assert.Equal(t, "KEY-1", issue.Key)
	assert.Same(t, c, issue.Tracker())

	assert.Equal(t, map[string]any{
		"summary":              "S",
		"queue":                "SUPPORT",
		"61f2e5d1--customerId": "c-42",
	}, req.last().body)
}

func TestEditIssue(t *testing.T) {
	c, req := newRecordingClient(t, respondWith(fullIssueJSON))

	_, err := c.EditIssue(context.Background(), "KEY-1", 7, Fields{"summary": "new", "assignee": nil})
	require.NoError(t, err)

	call := req.last()
	assert.Equal(t, http.MethodPatch, call.method)
	assert.Equal(t, "/issues/KEY-1", call.uri)
	assert.Equal(t, "7", call.params.Get("version"))
	assert.Equal(t, map[string]any{"summary": "new"}, call.body)
}

func TestMoveIssueParams(t *testing.T) {
	c, req := newRecordingClient(t, respondWith(fullIssueJSON))

	_, err := c.MoveIssue(context.Background(), "KEY-1", "NEW", MoveOptions{
		NoNotify:      true,
		MoveAllFields: true,
		Expand:        "attachments",
	}, nil)
	require.NoError(t, err)

	call := req.last()
	assert.Equal(t, "/issues/KEY-1/_move", call.uri)
	assert.Equal(t, url.Values{
		"queue":         {"NEW"},
		"notify":        {"false"},
		"moveAllFields": {"true"},
		"expand":        {"attachments"},
	}, call.params)
	assert.Empty(t, call.body)
}

func TestFindIssues(t *testing.T) {
	c, req := newRecordingClient(t, respondWith("["+fullIssueJSON+","+fullIssueJSON+"]"))

	issues, err := c.FindIssues(context.Background(), SearchParams{
		Filter: map[string]any{"queue": "KEY", "assignee": "empty()"},
		Order:  "+status",
		Expand: "transitions",
	})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Same(t, c, issues[1].Tracker())

	call := req.last()
	assert.Equal(t, "/issues/_search", call.uri)
	assert.Equal(t, "+status", call.params.Get("order"))
	assert.Equal(t, "transitions", call.params.Get("expand"))
	assert.Equal(t, map[string]any{
		"filter": map[string]any{"queue": "KEY", "assignee": "empty()"},
	}, call.body)
}

func TestGetIssuesPreservesOrder(t *testing.T) {
	c, _ := newRecordingClient(t, func(_, uri string) ([]byte, error) {
		key := strings.TrimPrefix(uri, "/issues/")
		return []byte(strings.ReplaceAll(fullIssueJSON, "KEY-1", key)), nil
	})

	keys := []string{"A-1", "B-2", "C-3", "D-4", "E-5", "F-6", "G-7"}
	issues, err := c.GetIssues(context.Background(), keys, "")
	require.NoError(t, err)
	require.Len(t, issues, len(keys))
	for i, key := range keys {
		assert.Equal(t, key, issues[i].Key)
	}
}

func TestGetIssuesFailure(t *testing.T) {
	c, _ := newRecordingClient(t, func(_, uri string) ([]byte, error) {
		if strings.HasSuffix(uri, "B-2") {
			return nil, Classify(http.StatusNotFound, nil)
		}
		return []byte(fullIssueJSON), nil
	})

	_, err := c.GetIssues(context.Background(), []string{"A-1", "B-2"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "B-2")
}

const transitionsJSON = `[
	{"id": "start", "self": "%[1]s/v2/issues/KEY-1/transitions/start", "display": "Start", "to": {"self": "s", "id": "2", "key": "inProgress", "display": "In progress"}},
	{"id": "resolve", "self": "%[1]s/v2/issues/KEY-1/transitions/resolve", "display": "Resolve", "to": {"self": "s", "id": "3", "key": "resolved", "display": "Resolved"}},
	{"id": "close", "self": "%[1]s/v2/issues/KEY-1/transitions/close", "display": "Close", "to": {"self": "s", "id": "4", "key": "closed", "display": "Closed"}}
]`

func TestTransitionsScenario(t *testing.T) {
	var (
		mu       sync.Mutex
		executed []string
		baseURL  string
	)
	server, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v2/issues/KEY-1":
			_, _ = io.WriteString(w, fullIssueJSON)
		case r.Method == http.MethodGet && r.URL.Path == "/v2/issues/KEY-1/transitions":
			_, _ = fmt.Fprintf(w, transitionsJSON, baseURL)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/_execute"):
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, map[string]any{"resolution": "fixed"}, body)
			mu.Lock()
			executed = append(executed, r.URL.Path)
			mu.Unlock()
			_, _ = io.WriteString(w, "[]")
		default:
			http.NotFound(w, r)
		}
	})
	baseURL = server.URL

	issue, err := c.GetIssue(context.Background(), "KEY-1", "")
	require.NoError(t, err)

	transitions, err := issue.GetTransitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, transitions.Len())
	assert.Equal(t, []string{"start", "resolve", "close"}, transitions.Keys())

	var seen []string
	for tr := range transitions.All() {
		seen = append(seen, tr.ID)
	}
	assert.Equal(t, []string{"start", "resolve", "close"}, seen)

	_, ok := transitions.Next()
	assert.False(t, ok)
	for range transitions.All() {
		t.Fatal("exhausted transitions must not yield again")
	}

	again, err := c.GetTransitions(context.Background(), "KEY-1")
	require.NoError(t, err)
	first, ok := again.Next()
	require.True(t, ok)
	assert.Equal(t, "start", first.ID)

	closeTr, ok := again.Get("close")
	require.True(t, ok)
	_, err = closeTr.Execute(context.Background(), Fields{"resolution": "fixed"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/v2/issues/KEY-1/transitions/close/_execute"}, executed)
}

func TestExecuteTransitionWithoutLink(t *testing.T) {
	c, _ := newRecordingClient(t, respondWith("[]"))
	_, err := c.ExecuteTransition(context.Background(), &Transition{ID: "close"}, nil)
	require.Error(t, err)
}

func TestFullIssueConvenience(t *testing.T) {
	commentJSON := `{"self":"https://x/comments/1","id":"1","text":"hi","createdBy":{"self":"u","id":"1","display":"Ivan"},"createdAt":"2017-06-11T05:16:01.339+0000","version":1}`
	c, req := newRecordingClient(t, func(method, uri string) ([]byte, error) {
		switch {
		case uri == "/issues/KEY-1":
			return []byte(fullIssueJSON), nil
		case method == http.MethodGet && uri == "/issues/593cd211ef7e8a332414f2a7/comments":
			return []byte("[" + commentJSON + "]"), nil
		case method == http.MethodPost:
			return []byte(commentJSON), nil
		}
		return nil, Classify(http.StatusNotFound, nil)
	})

	issue, err := c.GetIssue(context.Background(), "KEY-1", "")
	require.NoError(t, err)

	comments, err := issue.GetComments(context.Background())
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "hi", comments[0].Text)
	assert.Same(t, c, comments[0].Tracker())

	comment, err := issue.PostComment(context.Background(), "hello", Fields{"summonees": []string{"olga"}})
	require.NoError(t, err)
	assert.Equal(t, "1", comment.ID)

	call := req.last()
	assert.Equal(t, "/issues/593cd211ef7e8a332414f2a7/comments/", call.uri)
	assert.Equal(t, map[string]any{"text": "hello", "summonees": []any{"olga"}}, call.body)
}

func TestQueueOperations(t *testing.T) {
	queueJSON := `{
		"self": "https://x/queues/TEST", "id": 3, "key": "TEST", "version": 5, "name": "Test",
		"lead": {"self": "u", "id": "1", "display": "Ivan"},
		"assignAuto": false,
		"defaultType": {"self": "t", "id": "1", "key": "bug", "display": "Bug"},
		"defaultPriority": {"self": "p", "id": "3", "key": "normal", "display": "Normal"},
		"teamUsers": [], "issueTypes": [], "versions": [], "workflows": [],
		"denyVoting": false,
		"issueTypesConfig": [{
			"issueType": {"self": "t", "id": "1", "key": "bug", "display": "Bug"},
			"workflow": {"self": "w", "id": "dev", "key": "dev", "display": "Dev"},
			"resolutions": [{"self": "r", "id": "1", "key": "fixed", "display": "Fixed"}]
		}]
	}`
	c, req := newRecordingClient(t, respondWith(queueJSON))
	ctx := context.Background()

	queue, err := c.CreateQueue(ctx, CreateQueueParams{
		Key:             "TEST",
		Name:            "Test",
		Lead:            "ivan",
		DefaultType:     "bug",
		DefaultPriority: "normal",
		IssueTypesConfig: []IssueTypeConfigParams{
			{IssueType: "bug", Workflow: "dev", Resolutions: []string{"fixed"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), queue.ID)
	require.Len(t, queue.IssueTypesConfig, 1)
	assert.Same(t, c, queue.IssueTypesConfig[0].Resolutions[0].Tracker())

	call := req.last()
	assert.Equal(t, "/queues", call.uri)
	assert.Equal(t, "bug", call.body["defaultType"])
	assert.Equal(t, "normal", call.body["defaultPriority"])
	assert.Len(t, call.body["issueTypesConfig"], 1)

	_, err = c.GetQueue(ctx, "TEST")
	require.NoError(t, err)
	assert.Equal(t, "/queues/TEST", req.last().uri)

	_, err = c.RestoreQueue(ctx, "TEST")
	require.NoError(t, err)
	assert.Equal(t, "/queues/TEST/_restore", req.last().uri)

	require.NoError(t, c.DeleteTagFromQueue(ctx, "TEST", "old"))
	assert.Equal(t, http.MethodDelete, req.last().method)
	assert.Equal(t, map[string]any{"tag": "old"}, req.last().body)

	require.NoError(t, c.DeleteQueue(ctx, "TEST"))
	assert.Equal(t, "/queues/TEST", req.last().uri)
}

func TestGetQueuesParams(t *testing.T) {
	c, req := newRecordingClient(t, respondWith("[]"))

	queues, err := c.GetQueues(context.Background(), "all", 50)
	require.NoError(t, err)
	assert.Empty(t, queues)
	assert.Equal(t, url.Values{"expand": {"all"}, "perPage": {"50"}}, req.last().params)
	assert.Nil(t, req.last().body)
}

func TestGetPrioritiesNotLocalized(t *testing.T) {
	c, req := newRecordingClient(t, respondWith(`[{"self":"p","id":"1","key":"low","name":{"en":"Low","ru":"Низкий"},"order":1}]`))

	priorities, err := c.GetPriorities(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, priorities, 1)
	assert.Equal(t, map[string]any{"en": "Low", "ru": "Низкий"}, priorities[0].Name)
	assert.Equal(t, "Priority", priorities[0].String())
	assert.Equal(t, "false", req.last().params.Get("localized"))
}

func TestGetMyself(t *testing.T) {
	c, req := newRecordingClient(t, respondWith(`{"self":"https://x/users/11","uid":11,"login":"ivan","display":"Ivan Ivanov","trackerUid":11}`))

	me, err := c.GetMyself(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11), me.UID)
	assert.Equal(t, "Ivan Ivanov", me.String())
	assert.Same(t, c, me.Tracker())
	assert.Equal(t, "/myself", req.last().uri)

	c, _ = newRecordingClient(t, respondWith(`{"self":"https://x/users/11","login":"ivan","display":"Ivan"}`))
	_, err = c.GetMyself(context.Background())
	assert.ErrorIs(t, err, ErrDecode)
}

func TestPostWorklog(t *testing.T) {
	worklogJSON := `{
		"self": "https://x/worklog/1", "id": 1, "version": 1,
		"issue": {"self": "i", "id": "1", "key": "KEY-1", "display": "Issue"},
		"createdBy": {"self": "u", "id": "1", "display": "Ivan"},
		"createdAt": "2021-09-21T11:18:00.000+0000",
		"start": "2021-09-21T10:00:00.000+0000",
		"duration": "PT1H30M"
	}`
	c, req := newRecordingClient(t, respondWith(worklogJSON))

	start := time.Date(2021, 9, 21, 10, 0, 0, 0, time.UTC)
	wl, err := c.PostWorklog(context.Background(), "KEY-1", start, Duration{Hours: 1, Minutes: 30}, Fields{"comment": "review"})
	require.NoError(t, err)
	assert.Equal(t, Duration{Hours: 1, Minutes: 30}, wl.Duration)
	assert.Equal(t, "KEY-1", wl.Issue.Key)

	call := req.last()
	assert.Equal(t, "/issues/KEY-1/worklog/", call.uri)
	assert.Equal(t, map[string]any{
		"start":    "2021-09-21T10:00:00.000+0000",
		"duration": "PT1H30M",
		"comment":  "review",
	}, call.body)
}

func TestIssueLinks(t *testing.T) {
	linksJSON := `[{
		"self": "https://x/links/1", "id": 1,
		"type": {"self": "t", "id": "depends", "inward": "depends on", "outward": "is dependent by"},
		"direction": "inward",
		"object": {"self": "i", "id": "2", "key": "KEY-2", "display": "Other"},
		"createdBy": {"self": "u", "id": "1", "display": "Ivan"},
		"createdAt": "2021-09-21T11:18:00.000+0000",
		"status": {"self": "s", "id": "1", "key": "open", "display": "Open"}
	}]`
	c, req := newRecordingClient(t, respondWith(linksJSON))

	links, err := c.GetIssueLinks(context.Background(), "KEY-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "depends on", links[0].Name())
	assert.Equal(t, "KEY-2", links[0].Object.Key)
	assert.Equal(t, "/issues/KEY-1/links", req.last().uri)

	links[0].Direction = LinkOutward
	assert.Equal(t, "is dependent by", links[0].Name())
}

func TestAttachmentPaths(t *testing.T) {
	c, req := newRecordingClient(t, respondWith("raw"))
	ctx := context.Background()

	data, err := c.DownloadAttachment(ctx, "KEY-1", "4", "my notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), data)
	assert.Equal(t, "/issues/KEY-1/attachments/4/my%20notes.txt", req.last().uri)

	_, err = c.DownloadThumbnail(ctx, "KEY-1", "4")
	require.NoError(t, err)
	assert.Equal(t, "/issues/KEY-1/thumbnails/4", req.last().uri)

	require.NoError(t, c.DeleteAttachment(ctx, "KEY-1", "4"))
	assert.Equal(t, "/issues/KEY-1/attachments/4/", req.last().uri)
}
