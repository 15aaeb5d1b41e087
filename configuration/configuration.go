package configuration

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"
)

// Configuration is a versioned mount daemon configuration, intended to be
// provided by a yaml file, and optionally modified by environment
// variables.
//
// Note that yaml field names should never include _ characters, since this
// is the separator used in environment variable names.
type Configuration struct {
	// Version is the version which defines the format of the rest of the
	// configuration.
	Version Version `yaml:"version"`

	// Log supports setting various parameters related to the logging
	// subsystem.
	Log Log `yaml:"log"`

	// Loglevel is the level at which mount operations are logged.
	//
	// Deprecated: Use Log.Level instead.
	Loglevel Loglevel `yaml:"loglevel,omitempty"`

	// Remote configures the block-store and root-pointer coordinator this
	// daemon talks to.
	Remote Remote `yaml:"remote"`

	// HTTP contains configuration parameters for the daemon's http
	// interface.
	HTTP HTTP `yaml:"http,omitempty"`

	// Health provides the configuration section for health checks.
	Health Health `yaml:"health,omitempty"`
}

// Remote configures the block-store client and root-pointer coordinator a
// mount daemon (or CLI workspace) connects to.
type Remote struct {
	// URL is the base address of the remote block-store HTTP API.
	URL string `yaml:"url"`

	// Token authorizes requests to the block store (§4.6's "bearer
	// token" authorization scheme).
	Token string `yaml:"token,omitempty"`

	// KeyPath is the directory holding key material used for request
	// signing. The core never reads key material itself — this is an
	// external-collaborator boundary per spec.md §1 — but the path is
	// threaded through configuration so the CLI and daemon agree on it.
	KeyPath string `yaml:"keypath,omitempty"`

	// CoordinatorDSN is the data source name for the root-pointer
	// coordinator's backing SQL database (see rootptr.SQLStore). Passed
	// straight to sql.Open by the caller; the core never parses it.
	CoordinatorDSN string `yaml:"coordinatordsn,omitempty"`
}

// Log represents the configuration for logging within the application.
type Log struct {
	// AccessLog configures access logging.
	AccessLog AccessLog `yaml:"accesslog,omitempty"`

	// Level is the granularity at which mount operations are logged.
	Level Loglevel `yaml:"level,omitempty"`

	// Formatter overrides the default formatter with another. Options
	// are "text" and "json".
	Formatter string `yaml:"formatter,omitempty"`

	// Fields allows users to specify static string fields to include in
	// the logger context.
	Fields map[string]interface{} `yaml:"fields,omitempty"`

	// ReportCaller allows user to configure the log to report the caller.
	ReportCaller bool `yaml:"reportcaller,omitempty"`
}

// AccessLog configures options for access logging.
type AccessLog struct {
	// Disabled disables access logging.
	Disabled bool `yaml:"disabled,omitempty"`
}

// HTTP defines configuration options for the mount daemon's HTTP interface
// (§6.2).
type HTTP struct {
	// Addr specifies the bind address for the mount daemon instance.
	Addr string `yaml:"addr,omitempty"`

	// Net specifies the net portion of the bind address. A default empty
	// value means tcp.
	Net string `yaml:"net,omitempty"`

	// Prefix specifies a URL path prefix for the HTTP interface.
	Prefix string `yaml:"prefix,omitempty"`

	// DrainTimeout is the amount of time to wait for connections to
	// drain before shutting down when the daemon receives a stop signal.
	DrainTimeout time.Duration `yaml:"draintimeout,omitempty"`

	// TLS instructs the http server to listen with a TLS configuration.
	TLS TLS `yaml:"tls,omitempty"`

	// Headers is a set of headers to include in HTTP responses.
	Headers http.Header `yaml:"headers,omitempty"`
}

// TLS defines the configuration options for enabling TLS.
type TLS struct {
	// Certificate specifies the path to an x509 certificate file to be
	// used for TLS.
	Certificate string `yaml:"certificate,omitempty"`

	// Key specifies the path to the x509 key file.
	Key string `yaml:"key,omitempty"`

	// MinimumTLS specifies the lowest TLS version allowed.
	MinimumTLS string `yaml:"minimumtls,omitempty"`
}

// FileChecker is a type of entry in the health section for checking files.
type FileChecker struct {
	Interval  time.Duration `yaml:"interval,omitempty"`
	File      string        `yaml:"file,omitempty"`
	Threshold int           `yaml:"threshold,omitempty"`
}

// HTTPChecker is a type of entry in the health section for checking HTTP
// URIs — used to wire up a health check against the configured remote
// block-store API.
type HTTPChecker struct {
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	StatusCode int
	Interval   time.Duration `yaml:"interval,omitempty"`
	URI        string        `yaml:"uri,omitempty"`
	Headers    http.Header   `yaml:"headers"`
	Threshold  int           `yaml:"threshold,omitempty"`
}

// Health provides the configuration section for health checks, trimmed to
// mount-relevant checks: block-store reachability and root-pointer
// coordinator reachability, in place of the teacher's registry-specific
// storage-driver health check.
type Health struct {
	FileCheckers []FileChecker     `yaml:"file,omitempty"`
	HTTPCheckers []HTTPChecker     `yaml:"http,omitempty"`
	Coordinator  CoordinatorHealth `yaml:"coordinator,omitempty"`
	BlockStore   BlockStoreHealth  `yaml:"blockstore,omitempty"`
}

// CoordinatorHealth configures a health check on the root-pointer
// coordinator (a PullRoot round trip).
type CoordinatorHealth struct {
	Enabled   bool          `yaml:"enabled,omitempty"`
	Interval  time.Duration `yaml:"interval,omitempty"`
	Threshold int           `yaml:"threshold,omitempty"`
}

// BlockStoreHealth configures a health check on the remote block store (a
// Pinned round trip against the default identifier).
type BlockStoreHealth struct {
	Enabled   bool          `yaml:"enabled,omitempty"`
	Interval  time.Duration `yaml:"interval,omitempty"`
	Threshold int           `yaml:"threshold,omitempty"`
}

// v0_1Configuration is a Version 0.1 Configuration struct. This is
// currently aliased to Configuration, as it is the current version.
type v0_1Configuration Configuration

// UnmarshalYAML implements the yaml.Unmarshaler interface. Unmarshals a
// string of the form X.Y into a Version, validating that X and Y can
// represent unsigned integers.
func (version *Version) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var versionString string
	err := unmarshal(&versionString)
	if err != nil {
		return err
	}

	newVersion := Version(versionString)
	if _, err := newVersion.major(); err != nil {
		return err
	}
	if _, err := newVersion.minor(); err != nil {
		return err
	}

	*version = newVersion
	return nil
}

// CurrentVersion is the most recent Version that can be parsed.
var CurrentVersion = MajorMinorVersion(0, 1)

// Loglevel is the level at which operations are logged. This can be error,
// warn, info, or debug.
type Loglevel string

// UnmarshalYAML implements the yaml.Umarshaler interface. Unmarshals a
// string into a Loglevel, lowercasing the string and validating that it
// represents a valid loglevel.
func (loglevel *Loglevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var loglevelString string
	err := unmarshal(&loglevelString)
	if err != nil {
		return err
	}

	loglevelString = strings.ToLower(loglevelString)
	switch loglevelString {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("invalid loglevel %s. Must be one of [error, warn, info, debug]", loglevelString)
	}

	*loglevel = Loglevel(loglevelString)
	return nil
}

// Parse parses an input configuration yaml document into a Configuration
// struct.
//
// Environment variables may be used to override configuration parameters
// other than version, following the scheme below:
// Configuration.Abc may be replaced by the value of MOUNT_ABC,
// Configuration.Abc.Xyz may be replaced by the value of MOUNT_ABC_XYZ, and
// so forth.
func Parse(rd io.Reader) (*Configuration, error) {
	in, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	p := NewParser("mount", []VersionedParseInfo{
		{
			Version: MajorMinorVersion(0, 1),
			ParseAs: reflect.TypeOf(v0_1Configuration{}),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				v0_1, ok := c.(*v0_1Configuration)
				if !ok {
					return nil, fmt.Errorf("expected *v0_1Configuration, received %#v", c)
				}
				if v0_1.Log.Level == Loglevel("") {
					if v0_1.Loglevel != Loglevel("") {
						v0_1.Log.Level = v0_1.Loglevel
					} else {
						v0_1.Log.Level = Loglevel("info")
					}
				}
				if v0_1.Loglevel != Loglevel("") {
					v0_1.Loglevel = Loglevel("")
				}
				if v0_1.Remote.URL == "" {
					return nil, errors.New("no remote block-store url configured")
				}
				return (*Configuration)(v0_1), nil
			},
		},
	})

	config := new(Configuration)
	if err := p.Parse(in, config); err != nil {
		return nil, err
	}
	return config, nil
}
