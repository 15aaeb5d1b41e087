package configuration

import (
	"bytes"
	"net/http"
	"os"
	"testing"

	. "gopkg.in/check.v1"
	"gopkg.in/yaml.v2"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

// configStruct is a canonical example configuration, which should map to
// configYamlV0_1.
var configStruct = Configuration{
	Version: "0.1",
	Log: Log{
		Level:  "info",
		Fields: map[string]interface{}{"environment": "test"},
	},
	Remote: Remote{
		URL:            "https://store.example.com",
		Token:          "example-token",
		KeyPath:        "/etc/mount/keys",
		CoordinatorDSN: "postgres://mount@localhost/rootptr",
	},
	HTTP: HTTP{
		Headers: http.Header{
			"X-Content-Type-Options": []string{"nosniff"},
		},
	},
}

// configYamlV0_1 is a Version 0.1 yaml document representing configStruct.
var configYamlV0_1 = `
version: 0.1
log:
  fields:
    environment: test
loglevel: info
remote:
  url: https://store.example.com
  token: example-token
  keypath: /etc/mount/keys
  coordinatordsn: postgres://mount@localhost/rootptr
http:
  headers:
    X-Content-Type-Options: [nosniff]
`

type ConfigSuite struct {
	expectedConfig *Configuration
}

var _ = Suite(new(ConfigSuite))

func (suite *ConfigSuite) SetUpTest(c *C) {
	os.Clearenv()
	suite.expectedConfig = copyConfig(configStruct)
}

// TestMarshalRoundtrip validates that configStruct can be marshaled and
// unmarshaled without changing any parameters.
func (suite *ConfigSuite) TestMarshalRoundtrip(c *C) {
	configBytes, err := yaml.Marshal(suite.expectedConfig)
	c.Assert(err, IsNil)
	config, err := Parse(bytes.NewReader(configBytes))
	c.Assert(err, IsNil)
	c.Assert(config, DeepEquals, suite.expectedConfig)
}

// TestParseSimple validates that configYamlV0_1 can be parsed into a struct
// matching configStruct.
func (suite *ConfigSuite) TestParseSimple(c *C) {
	config, err := Parse(bytes.NewReader([]byte(configYamlV0_1)))
	c.Assert(err, IsNil)
	c.Assert(config, DeepEquals, suite.expectedConfig)
}

// TestParseIncomplete validates that an incomplete yaml configuration
// cannot be parsed without providing environment variables to fill in the
// missing remote url.
func (suite *ConfigSuite) TestParseIncomplete(c *C) {
	incompleteConfigYaml := "version: 0.1"
	_, err := Parse(bytes.NewReader([]byte(incompleteConfigYaml)))
	c.Assert(err, NotNil)

	os.Setenv("MOUNT_REMOTE_URL", "https://store.example.com")

	config, err := Parse(bytes.NewReader([]byte(incompleteConfigYaml)))
	c.Assert(err, IsNil)
	c.Assert(config.Remote.URL, Equals, "https://store.example.com")
}

// TestParseWithDifferentEnvRemoteURL validates that providing an
// environment variable that changes the remote url will be reflected in
// the parsed Configuration struct.
func (suite *ConfigSuite) TestParseWithDifferentEnvRemoteURL(c *C) {
	suite.expectedConfig.Remote.URL = "https://other.example.com"

	os.Setenv("MOUNT_REMOTE_URL", "https://other.example.com")

	config, err := Parse(bytes.NewReader([]byte(configYamlV0_1)))
	c.Assert(err, IsNil)
	c.Assert(config, DeepEquals, suite.expectedConfig)
}

// TestParseWithSameEnvLoglevel validates that providing an environment
// variable defining the log level to the same as the one provided in the
// yaml will not change the parsed Configuration struct.
func (suite *ConfigSuite) TestParseWithSameEnvLoglevel(c *C) {
	os.Setenv("MOUNT_LOGLEVEL", "info")

	config, err := Parse(bytes.NewReader([]byte(configYamlV0_1)))
	c.Assert(err, IsNil)
	c.Assert(config, DeepEquals, suite.expectedConfig)
}

// TestParseWithDifferentEnvLoglevel validates that providing an
// environment variable defining the log level will override the value
// provided in the yaml document.
func (suite *ConfigSuite) TestParseWithDifferentEnvLoglevel(c *C) {
	suite.expectedConfig.Log.Level = "error"

	os.Setenv("MOUNT_LOGLEVEL", "error")

	config, err := Parse(bytes.NewReader([]byte(configYamlV0_1)))
	c.Assert(err, IsNil)
	c.Assert(config, DeepEquals, suite.expectedConfig)
}

// TestParseInvalidLoglevel validates that the parser will fail to parse a
// configuration if the loglevel is malformed.
func (suite *ConfigSuite) TestParseInvalidLoglevel(c *C) {
	invalidConfigYaml := "version: 0.1\nloglevel: derp\nremote:\n  url: https://store.example.com"
	_, err := Parse(bytes.NewReader([]byte(invalidConfigYaml)))
	c.Assert(err, NotNil)

	os.Setenv("MOUNT_LOGLEVEL", "derp")

	_, err = Parse(bytes.NewReader([]byte(configYamlV0_1)))
	c.Assert(err, NotNil)
}

// TestParseInvalidVersion validates that the parser will fail to parse a
// newer configuration version than the CurrentVersion.
func (suite *ConfigSuite) TestParseInvalidVersion(c *C) {
	suite.expectedConfig.Version = MajorMinorVersion(CurrentVersion.Major(), CurrentVersion.Minor()+1)
	configBytes, err := yaml.Marshal(suite.expectedConfig)
	c.Assert(err, IsNil)
	_, err = Parse(bytes.NewReader(configBytes))
	c.Assert(err, NotNil)
}

func copyConfig(config Configuration) *Configuration {
	configCopy := new(Configuration)

	configCopy.Version = MajorMinorVersion(config.Version.Major(), config.Version.Minor())
	configCopy.Loglevel = config.Loglevel
	configCopy.Log = config.Log
	configCopy.Log.Fields = make(map[string]interface{}, len(config.Log.Fields))
	for k, v := range config.Log.Fields {
		configCopy.Log.Fields[k] = v
	}

	configCopy.Remote = config.Remote
	configCopy.HTTP = config.HTTP

	return configCopy
}
