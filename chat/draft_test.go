package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Timik232/Mts-json-generator/llm"
)

func TestUpdateDraftCreatesNestedParents(t *testing.T) {
	draft, err := UpdateDraft("", []llm.MentionedParam{
		{Path: "doc.name", Value: "billing sync"},
		{Path: "doc.restCallConfig.url", Value: "https://api.example.com"},
		{Path: "doc.restCallConfig.method", Value: "POST"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"doc": {
			"name": "billing sync",
			"restCallConfig": {
				"url": "https://api.example.com",
				"method": "POST"
			}
		}
	}`, draft)
}

func TestUpdateDraftReplacesExistingLeaf(t *testing.T) {
	draft, err := UpdateDraft(`{"doc": {"name": "old"}}`, []llm.MentionedParam{
		{Path: "doc.name", Value: "new"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"doc": {"name": "new"}}`, draft)
}

func TestUpdateDraftNoParamsIsNoop(t *testing.T) {
	draft, err := UpdateDraft(`{"doc": {}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"doc": {}}`, draft)
}

func TestUpdateDraftRejectsMalformedDraft(t *testing.T) {
	_, err := UpdateDraft(`{"doc":`, []llm.MentionedParam{{Path: "doc.name", Value: "x"}})
	assert.Error(t, err)
}

func TestDraftOpsGuardAgainstDuplicateParents(t *testing.T) {
	ops := draftOps(map[string]any{}, []llm.MentionedParam{
		{Path: "doc.a", Value: "1"},
		{Path: "doc.b", Value: "2"},
	})
	// One parent creation, two leaf adds.
	require.Len(t, ops, 3)
	assert.Equal(t, operation{Op: "add", Path: "/doc", Value: map[string]any{}}, ops[0])
	assert.Equal(t, "add", ops[1].Op)
	assert.Equal(t, "/doc/a", ops[1].Path)
	assert.Equal(t, "/doc/b", ops[2].Path)
}
