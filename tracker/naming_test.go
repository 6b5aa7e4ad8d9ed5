package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelCase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "single word", input: "summary", want: "summary"},
		{name: "already camel", input: "defaultPriority", want: "defaultPriority"},
		{name: "two words", input: "default_priority", want: "defaultPriority"},
		{name: "three words", input: "move_all_fields", want: "moveAllFields"},
		{name: "hyphens", input: "notify-author", want: "notifyAuthor"},
		{name: "escaped keyword", input: "type_", want: "type"},
		{name: "acronym word", input: "attachment_ids", want: "attachmentIds"},
		{name: "repeated separators", input: "last__comment_updated_at", want: "lastCommentUpdatedAt"},
		{name: "only separators", input: "__", want: ""},
		{name: "first word kept as given", input: "Default_Priority", want: "DefaultPriority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CamelCase(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "_")
		})
	}
}

func TestWireName(t *testing.T) {
	assert.Equal(t, "self", WireName(LinkField))
	assert.Equal(t, "self", WireName("url"))
	assert.Equal(t, "createdBy", WireName("created_by"))
	assert.Equal(t, "", WireName(""))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, foldName("UserID"), foldName("user_id"))
	assert.Equal(t, foldName("userId"), foldName("user-id"))
	assert.NotEqual(t, foldName("user"), foldName("users"))
}
