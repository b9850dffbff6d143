package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forestYML = `
leaf_node_model: linear
node_type: multi_response
bootstrap_selector: weighted
live_update_feature_weight: true
max_tree_depth: 12
min_node_variance: 0.5
min_leaf_size: 3
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(forestYML))
	require.NoError(t, err)

	v, ok := c.String(LeafNodeModel)
	assert.True(t, ok)
	assert.Equal(t, "linear", v)
	assert.Equal(t, MultiResponseNode, c.StringOr(NodeType, SingleResponseNode))
	assert.True(t, c.BoolOr(LiveUpdateFeatureWeight, false))
	assert.Equal(t, 12, c.IntOr(MaxTreeDepth, 0))
	assert.Equal(t, 0.5, c.FloatOr(MinNodeVariance, 1e-7))
	assert.Equal(t, 3.0, c.FloatOr(MinLeafSize, 0), "integers are accepted as floats")
}

func TestDefaults(t *testing.T) {
	c := New(nil)

	assert.False(t, c.Has(FeatureSelector))
	assert.Equal(t, RandomFeatureSelector, c.StringOr(FeatureSelector, RandomFeatureSelector))
	assert.Equal(t, 2, c.IntOr(MinNodeSize, 2))
	assert.False(t, c.BoolOr(LiveUpdateFeatureWeight, false))
}

func TestWrongType(t *testing.T) {
	c := New(map[string]interface{}{MaxTreeDepth: "deep"})

	_, ok := c.Int(MaxTreeDepth)
	assert.False(t, ok)
	assert.Equal(t, 7, c.IntOr(MaxTreeDepth, 7))
}

func TestNilConfig(t *testing.T) {
	var c *Config
	assert.False(t, c.Has(NodeType))
	assert.Equal(t, SingleResponseNode, c.StringOr(NodeType, SingleResponseNode))
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("- [unterminated"))
	assert.Error(t, err)
}
