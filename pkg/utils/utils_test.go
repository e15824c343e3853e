package utils

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

// TestConfig is a sample config struct for testing
type TestConfig struct {
	Name    string   `json:"name" jsonschema:"description=The name of the config"`
	Value   int      `json:"value" jsonschema:"description=A numeric value"`
	Enabled bool     `json:"enabled"`
	Tags    []string `json:"tags,omitempty"`
}

// NestedConfig is a sample nested config struct for testing
type NestedConfig struct {
	ID     string     `json:"id"`
	Config TestConfig `json:"config"`
}

func (suite *UtilsTestSuite) decode(schema string) map[string]interface{} {
	var result map[string]interface{}
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))

	return result
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigSimple() {
	schema, err := GetSchemaFromConfig(TestConfig{})
	suite.Require().NoError(err)

	result := suite.decode(schema)
	suite.Contains(result, "$schema")
	suite.NotContains(result, "$ref")

	properties, ok := result["properties"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Contains(properties, "name")
	suite.Contains(properties, "tags")
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigNested() {
	schema, err := GetSchemaFromConfig(NestedConfig{})
	suite.Require().NoError(err)

	result := suite.decode(schema)
	suite.NotContains(result, "$defs")

	properties, ok := result["properties"].(map[string]interface{})
	suite.Require().True(ok)

	nested, ok := properties["config"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Contains(nested, "properties")
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigOptions() {
	schema, err := GetSchemaFromConfig(TestConfig{}, WithTitle("test-config", "A config used in tests"), WithIndent())
	suite.Require().NoError(err)
	suite.True(strings.Contains(schema, "\n  "))

	result := suite.decode(schema)
	suite.Equal("test-config", result["title"])
	suite.Equal("A config used in tests", result["description"])
}

func (suite *UtilsTestSuite) TestGetSchemaFromConfigEmptyStruct() {
	type EmptyConfig struct{}

	schema, err := GetSchemaFromConfig(EmptyConfig{})
	suite.NoError(err)
	suite.NotEmpty(schema)
}
