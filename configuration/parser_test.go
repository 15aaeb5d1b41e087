package configuration

import (
	"os"
	"reflect"

	"gopkg.in/check.v1"
)

type localConfiguration struct {
	Version       Version          `yaml:"version"`
	Remote        *testRemoteField `yaml:"remote"`
	Notifications []testNotif      `yaml:"notifications,omitempty"`
}

type testRemoteField struct {
	URL string `yaml:"url,omitempty"`
}

type testNotif struct {
	Name string `yaml:"name"`
}

var expectedConfig = localConfiguration{
	Version: "0.1",
	Remote: &testRemoteField{
		URL: "https://override.example.com",
	},
	Notifications: []testNotif{
		{Name: "foo"},
		{Name: "bar"},
		{Name: "car"},
	},
}

const testConfig = `version: "0.1"
remote:
  url: "https://yaml.example.com"
notifications:
  - name: "foo"
  - name: "bar"
  - name: "car"`

type ParserSuite struct{}

var _ = check.Suite(new(ParserSuite))

func (suite *ParserSuite) TestParserOverwriteIninitializedPoiner(c *check.C) {
	config := localConfiguration{}

	os.Setenv("MOUNT_REMOTE_URL", "https://override.example.com")
	defer os.Unsetenv("MOUNT_REMOTE_URL")

	p := NewParser("mount", []VersionedParseInfo{
		{
			Version: "0.1",
			ParseAs: reflect.TypeOf(config),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				return c, nil
			},
		},
	})

	err := p.Parse([]byte(testConfig), &config)
	c.Assert(err, check.IsNil)
	c.Assert(config, check.DeepEquals, expectedConfig)
}

const testConfig2 = `version: "0.1"
remote:
  url: "https://yaml.example.com"
notifications:
  - name: "val1"
  - name: "val2"
  - name: "car"`

func (suite *ParserSuite) TestParseOverwriteUnininitializedPoiner(c *check.C) {
	config := localConfiguration{}

	os.Setenv("MOUNT_REMOTE_URL", "https://override.example.com")
	defer os.Unsetenv("MOUNT_REMOTE_URL")

	// override only first two notifications values in testConfig2: leave
	// the last value unchanged.
	os.Setenv("MOUNT_NOTIFICATIONS_0_NAME", "foo")
	defer os.Unsetenv("MOUNT_NOTIFICATIONS_0_NAME")
	os.Setenv("MOUNT_NOTIFICATIONS_1_NAME", "bar")
	defer os.Unsetenv("MOUNT_NOTIFICATIONS_1_NAME")

	p := NewParser("mount", []VersionedParseInfo{
		{
			Version: "0.1",
			ParseAs: reflect.TypeOf(config),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				return c, nil
			},
		},
	})

	err := p.Parse([]byte(testConfig2), &config)
	c.Assert(err, check.IsNil)
	c.Assert(config, check.DeepEquals, expectedConfig)
}
