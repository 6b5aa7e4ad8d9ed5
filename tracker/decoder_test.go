package tracker

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullIssueJSON = `{
	"self": "https://x/KEY-1",
	"id": "593cd211ef7e8a332414f2a7",
	"key": "KEY-1",
	"version": 7,
	"summary": "Test issue",
	"description": "Details",
	"type": {"self": "https://x/issuetypes/2", "id": "2", "key": "task", "display": "Task"},
	"priority": {"self": "https://x/priorities/3", "id": "3", "key": "normal", "display": "Normal"},
	"followers": [{"self": "https://x/users/1", "id": "1", "display": "Ivan"}],
	"queue": {"self": "https://x/queues/KEY", "id": "1", "key": "KEY", "display": "Key queue"},
	"favorite": false,
	"aliases": ["JUNE-3"],
	"createdAt": "2017-06-11T05:16:01.339+0000",
	"createdBy": {"self": "https://x/users/2", "id": "2", "display": "Olga"},
	"updatedAt": "2017-07-18T13:33:44.291+0000",
	"votes": 0,
	"status": {"self": "https://x/statuses/1", "id": "1", "key": "open", "display": "Open"}
}`

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithCloseGrace(0)}, opts...)
	c, err := NewClient("42", "T", opts...)
	require.NoError(t, err)
	return c
}

func TestDecodeFullIssue(t *testing.T) {
	c := newTestClient(t)

	issue, err := Decode[FullIssue](c, []byte(fullIssueJSON))
	require.NoError(t, err)

	assert.Equal(t, "https://x/KEY-1", issue.URL)
	assert.Equal(t, "KEY-1", issue.Key)
	assert.Equal(t, 7, issue.Version)
	assert.Equal(t, "Normal", issue.Priority.String())
	assert.Equal(t, []string{"JUNE-3"}, issue.Aliases)
	assert.Equal(t, 2017, issue.CreatedAt.Year())
	require.NotNil(t, issue.UpdatedAt)
	assert.Equal(t, 13, issue.UpdatedAt.UTC().Hour())
	assert.Nil(t, issue.Assignee)

	assert.Same(t, c, issue.Tracker())
	assert.Same(t, c, issue.CreatedBy.Tracker())
	assert.Same(t, c, issue.Queue.Tracker())
	require.Len(t, issue.Followers, 1)
	assert.Same(t, c, issue.Followers[0].Tracker())
}

func TestDecodeMissingRequiredField(t *testing.T) {
	c := newTestClient(t)
	data := []byte(strings.Replace(fullIssueJSON, `"summary": "Test issue",`, "", 1))

	_, err := Decode[FullIssue](c, data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "summary", decodeErr.Field)
}

func TestDecodeNullRequiredField(t *testing.T) {
	c := newTestClient(t)
	data := []byte(strings.Replace(fullIssueJSON, `"summary": "Test issue"`, `"summary": null`, 1))

	_, err := Decode[FullIssue](c, data)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeNullObject(t *testing.T) {
	c := newTestClient(t)

	t.Run("top level", func(t *testing.T) {
		issue, err := Decode[FullIssue](c, []byte("null"))
		assert.ErrorIs(t, err, ErrDecode)
		assert.ErrorIs(t, err, errMissingField)
		assert.Empty(t, issue.Key)
	})

	t.Run("list element", func(t *testing.T) {
		_, err := Decode[[]FullIssue](c, []byte("[null]"))
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "[0]", decodeErr.Field)
	})

	t.Run("map value", func(t *testing.T) {
		_, err := Decode[map[string]Transition](c, []byte(`{"a":null}`))
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "a", decodeErr.Field)
	})

	t.Run("pointer positions accept null", func(t *testing.T) {
		issue, err := Decode[*FullIssue](c, []byte("null"))
		require.NoError(t, err)
		assert.Nil(t, issue)

		users, err := Decode[[]*User](c, []byte(`[null,{"self":"s","id":"1","display":"Ivan"}]`))
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Nil(t, users[0])
		assert.Equal(t, "Ivan", users[1].Display)
	})

	t.Run("optional object field", func(t *testing.T) {
		data := []byte(strings.Replace(fullIssueJSON, `"summary": "Test issue"`, `"summary": "Test issue", "parent": null`, 1))
		issue, err := Decode[FullIssue](c, data)
		require.NoError(t, err)
		assert.Nil(t, issue.Parent)
	})

	t.Run("lists and maps may be null", func(t *testing.T) {
		issues, err := Decode[[]FullIssue](c, []byte("null"))
		require.NoError(t, err)
		assert.Nil(t, issues)
	})
}

func TestDecodeMissingNestedField(t *testing.T) {
	c := newTestClient(t)
	data := []byte(strings.Replace(fullIssueJSON, `"id": "2", "display": "Olga"`, `"display": "Olga"`, 1))

	_, err := Decode[FullIssue](c, data)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "createdBy.id", decodeErr.Field)
}

func TestDecodeMissingFieldInList(t *testing.T) {
	c := newTestClient(t)
	data := []byte(`[{"self":"s","id":"1","display":"ok"},{"self":"s","display":"no id"}]`)

	_, err := Decode[[]User](c, data)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "[1].id", decodeErr.Field)
}

type looseIssue struct {
	FullIssue
	Summary string `json:"summary,omitempty"`
	Team    string `json:"team,omitempty"`
}

func TestDecodeCustomTypeRelaxesField(t *testing.T) {
	c := newTestClient(t)
	data := strings.Replace(fullIssueJSON, `"summary": "Test issue",`, `"team": "core",`, 1)

	_, err := Decode[FullIssue](c, []byte(data))
	require.Error(t, err)

	issue, err := Decode[looseIssue](c, []byte(data))
	require.NoError(t, err)
	assert.Equal(t, "core", issue.Team)
	assert.Empty(t, issue.Summary)
	assert.Equal(t, "KEY-1", issue.Key)
	assert.Same(t, c, issue.Tracker())
	assert.Same(t, c, issue.CreatedBy.Tracker())
}

func TestDecodeInvalidInput(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "<html>"},
		{name: "wrong scalar type", data: strings.Replace(fullIssueJSON, `"votes": 0`, `"votes": "many"`, 1)},
		{name: "list instead of object", data: "[]"},
		{name: "bad timestamp", data: strings.Replace(fullIssueJSON, "2017-06-11T05:16:01.339+0000", "yesterday", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[FullIssue](c, []byte(tt.data))
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecodeScalars(t *testing.T) {
	c := newTestClient(t)

	n, err := Decode[int](c, []byte("12"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = Decode[int](c, []byte(`"12"`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeBindsMapValues(t *testing.T) {
	c := newTestClient(t)
	data := []byte(`{"a":{"self":"s","id":"1","key":"A-1","display":"A"}}`)

	byKey, err := Decode[map[string]Issue](c, data)
	require.NoError(t, err)
	a := byKey["a"]
	assert.Same(t, c, a.Tracker())

	byPtr, err := Decode[map[string]*Issue](c, data)
	require.NoError(t, err)
	assert.Same(t, c, byPtr["a"].Tracker())
}

type treeNode struct {
	Base
	Name     string      `json:"name"`
	Children []*treeNode `json:"children,omitempty"`
}

func TestDecodeRecursiveType(t *testing.T) {
	c := newTestClient(t)

	node, err := Decode[treeNode](c, []byte(`{"name":"root","children":[{"name":"leaf"}]}`))
	require.NoError(t, err)
	require.Len(t, node.Children, 1)
	assert.Same(t, c, node.Children[0].Tracker())

	_, err = Decode[treeNode](c, []byte(`{"name":"root","children":[{}]}`))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "children[0].name", decodeErr.Field)
}

func TestDecoderRegistryCachesPerType(t *testing.T) {
	c := newTestClient(t)

	first := c.decoders.get(reflect.TypeFor[FullIssue]())
	second := c.decoders.get(reflect.TypeFor[FullIssue]())
	list := c.decoders.get(reflect.TypeFor[[]FullIssue]())

	assert.Same(t, first, second)
	assert.NotSame(t, first, list)
	assert.Equal(t, 2, c.decoders.len())
}

func TestDecoderRegistryConcurrentUse(t *testing.T) {
	c := newTestClient(t)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Decode[FullIssue](c, []byte(fullIssueJSON))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.decoders.len())
}

func TestUnboundObject(t *testing.T) {
	var issue FullIssue
	assert.Nil(t, issue.Tracker())

	_, err := issue.GetComments(t.Context())
	assert.ErrorIs(t, err, ErrUnbound)
}
