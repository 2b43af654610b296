package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsDuplicateSiblings(t *testing.T) {
	_, err := New(&Node{
		Name:     "doc",
		Type:     TypeComposite,
		Required: true,
		Children: []*Node{
			sf("name", true, "first"),
			sf("name", true, "second"),
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaIntegrity)
}

func TestNewRejectsDanglingConditionReference(t *testing.T) {
	_, err := New(&Node{
		Name:     "doc",
		Type:     TypeComposite,
		Required: true,
		Children: []*Node{
			cond(sf("extra", true, "extra"), Equals{Field: "kind", Value: "x"}),
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaIntegrity)
}

func TestNewRejectsVariantKeyWithoutChild(t *testing.T) {
	_, err := New(&Node{
		Name:       "doc",
		Type:       TypeComposite,
		Required:   true,
		VariantKey: "type",
		Children:   []*Node{sf("name", true, "name")},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaIntegrity)
}

func TestLoadWorkflowSchema(t *testing.T) {
	tree, err := Load()
	require.NoError(t, err)

	// The discriminator and the workflow name are the only unconditional
	// requirements before the type is known.
	missing := tree.ComputeMissing(Values{})
	assert.Equal(t, []FieldPath{"wf_definition.name", "wf_definition.type"}, missing)

	root := tree.Root()
	assert.Equal(t, "type", root.VariantKey)
	typeNode, ok := tree.Find("wf_definition.type")
	require.True(t, ok)
	assert.Contains(t, typeNode.Enum, "complex")
	assert.Contains(t, typeNode.Enum, "rest_call")
}

func TestLoadConditionResolvesAcrossLevels(t *testing.T) {
	tree, err := Load()
	require.NoError(t, err)

	// details.restCallConfig is guarded by wf_definition.type, one level up.
	st, ok := tree.Resolve("wf_definition.details.restCallConfig",
		Values{"wf_definition.type": "rest_call", "wf_definition.name": "n"})
	require.True(t, ok)
	assert.Equal(t, StatusRequiredMissing, st)

	st, _ = tree.Resolve("wf_definition.details.restCallConfig",
		Values{"wf_definition.type": "db_call"})
	assert.Equal(t, StatusNotApplicable, st)
}

func TestLoadSelectsDatabaseVariant(t *testing.T) {
	tree, err := Load()
	require.NoError(t, err)

	values := Values{
		"wf_definition.type": "db_call",
		"wf_definition.name": "lookup",
		"wf_definition.details.databaseCallConfig.databaseCallDef.type": "select",
	}
	missing := tree.ComputeMissing(values)

	assert.Contains(t, missing,
		FieldPath("wf_definition.details.databaseCallConfig.databaseCallDef.sql"))
	assert.NotContains(t, missing,
		FieldPath("wf_definition.details.databaseCallConfig.databaseCallDef.functionName"))
	assert.NotContains(t, missing,
		FieldPath("wf_definition.details.databaseCallConfig.databaseCallRef"),
		"inline definition retires the template reference")
}

func TestLoadStarterDefaultsToRest(t *testing.T) {
	tree, err := Load()
	require.NoError(t, err)

	values := Values{
		"wf_definition.type": "await_for_message",
		"wf_definition.name": "wait",
	}
	missing := tree.ComputeMissing(values)

	// The default rest_call starter needs no name and no consumer config.
	assert.NotContains(t, missing, FieldPath("wf_definition.details.starters.name"))
	assert.NotContains(t, missing,
		FieldPath("wf_definition.details.starters.kafkaConsumer"))
	assert.Contains(t, missing,
		FieldPath("wf_definition.details.awaitForMessageConfig.MessageName"))
}

func TestPathsAreStableAndUnique(t *testing.T) {
	tree, err := Load()
	require.NoError(t, err)

	paths := tree.Paths()
	seen := make(map[FieldPath]struct{}, len(paths))
	for _, p := range paths {
		_, dup := seen[p]
		require.False(t, dup, "duplicate path %s", p)
		seen[p] = struct{}{}
		_, ok := tree.Find(p)
		assert.True(t, ok)
	}
	assert.Greater(t, len(paths), 150)
}
