// Package config holds the attributes that drive forest construction:
// which strategies build each tree, which regression model fits the leaves
// and the limits applied while growing.
//
// A Config is read by many tree builders at once and is never mutated after
// it has been created.
package config

import (
	"fmt"
	"io/ioutil"

	yaml "gopkg.in/yaml.v2"
)

// Recognised attribute keys.
const (
	LeafNodeModel           = "leaf_node_model"
	NodeType                = "node_type"
	BootstrapSelector       = "bootstrap_selector"
	InstanceWeightMethod    = "instance_weight_method"
	FeatureSelector         = "feature_selector"
	LiveUpdateFeatureWeight = "live_update_feature_weight"
	FeatureWeightMethod     = "feature_weight_method"
	NodeSplitter            = "node_splitter"
	MaxTreeDepth            = "max_tree_depth"
	MinNodeSize             = "min_node_size"
	MinLeafSize             = "min_leaf_size"
	MinNodeVariance         = "min_node_variance"
	NumSplitFeatures        = "num_split_features"
	NumTrees                = "num_trees"
	NumResponses            = "num_responses"
)

// Signatures accepted as attribute values.
const (
	SingleResponseNode = "single_response"
	MultiResponseNode  = "multi_response"

	UniformBootstrap  = "uniform"
	WeightedBootstrap = "weighted"
	NoBootstrap       = "none"

	UniformInstanceWeight           = "uniform"
	ResponseDeviationInstanceWeight = "response_deviation"

	RandomFeatureSelector   = "random"
	WeightedFeatureSelector = "weighted"

	VarianceReductionFeatureWeight = "variance_reduction"

	VarianceSplitter = "variance"
)

// Config is an immutable set of typed attributes.
type Config struct {
	attrs map[string]interface{}
}

// New returns a Config holding a copy of attrs.
func New(attrs map[string]interface{}) *Config {
	c := &Config{attrs: make(map[string]interface{}, len(attrs))}
	for k, v := range attrs {
		c.attrs[k] = v
	}
	return c
}

// Parse takes a YAML document with a mapping of attribute names to values
// and returns the Config it describes.
func Parse(b []byte) (*Config, error) {
	attrs := map[string]interface{}{}
	err := yaml.Unmarshal(b, &attrs)
	if err != nil {
		return nil, fmt.Errorf("parsing yml config: %v", err)
	}
	return New(attrs), nil
}

// Load reads the YAML file at path and parses it with Parse.
func Load(path string) (*Config, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %v", path, err)
	}
	return Parse(b)
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.attrs[key]
	return ok
}

// String returns the string value of key and whether it was set to a string.
func (c *Config) String(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.attrs[key].(string)
	return v, ok
}

// Bool returns the boolean value of key and whether it was set to a bool.
func (c *Config) Bool(key string) (bool, bool) {
	if c == nil {
		return false, false
	}
	v, ok := c.attrs[key].(bool)
	return v, ok
}

// Int returns the integer value of key and whether it was set to an integer.
func (c *Config) Int(key string) (int, bool) {
	if c == nil {
		return 0, false
	}
	switch v := c.attrs[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	}
	return 0, false
}

// Float returns the numeric value of key as a float64. Integers are accepted.
func (c *Config) Float(key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	switch v := c.attrs[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := c.Int(key); ok {
		return float64(i), true
	}
	return 0, false
}

// StringOr returns the value of key, or def when key is unset or empty.
func (c *Config) StringOr(key, def string) string {
	if v, ok := c.String(key); ok && v != "" {
		return v
	}
	return def
}

// BoolOr returns the value of key, or def when key is unset.
func (c *Config) BoolOr(key string, def bool) bool {
	if v, ok := c.Bool(key); ok {
		return v
	}
	return def
}

// IntOr returns the value of key, or def when key is unset.
func (c *Config) IntOr(key string, def int) int {
	if v, ok := c.Int(key); ok {
		return v
	}
	return def
}

// FloatOr returns the value of key, or def when key is unset.
func (c *Config) FloatOr(key string, def float64) float64 {
	if v, ok := c.Float(key); ok {
		return v
	}
	return def
}
