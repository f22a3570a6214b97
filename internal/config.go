package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/minato/gyotaku/internal/validate"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Data       DataConfig        `yaml:"data"`
	Validation ValidationConfig  `yaml:"validation"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Validation.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig holds paths to the SQLite database and the photos directory.
type DataConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	PhotosPath string `yaml:"photos_path"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.Required),
		validation.Field(&c.PhotosPath, validation.Required),
	)
}

// RegionConfig is the expected geographic bounding box; coordinates outside
// it warn on validation but remain valid.
type RegionConfig struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Validate validates the region bounds.
func (c *RegionConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MinLat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&c.MaxLat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&c.MinLon, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&c.MaxLon, validation.Min(-180.0), validation.Max(180.0)),
	); err != nil {
		return err
	}
	if c.MinLat >= c.MaxLat || c.MinLon >= c.MaxLon {
		return fmt.Errorf("region: min bounds must be below max bounds")
	}
	return nil
}

// Region converts the config box to the validation engine's type.
func (c *RegionConfig) Region() validate.Region {
	return validate.Region{MinLat: c.MinLat, MaxLat: c.MaxLat, MinLon: c.MinLon, MaxLon: c.MaxLon}
}

// ValidationConfig holds validation engine settings.
//
// Strict controls whether reference-integrity failures block record writes;
// out-of-region coordinates only ever warn.
type ValidationConfig struct {
	Strict bool         `yaml:"strict"`
	Region RegionConfig `yaml:"region"`
}

// Validate validates the validation configuration.
func (c *ValidationConfig) Validate() error {
	return c.Region.Validate()
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			SQLitePath: "./gyotaku.db",
			PhotosPath: "./photos",
		},
		Validation: ValidationConfig{
			Strict: false,
			Region: RegionConfig{
				MinLat: validate.DefaultRegion.MinLat,
				MaxLat: validate.DefaultRegion.MaxLat,
				MinLon: validate.DefaultRegion.MinLon,
				MaxLon: validate.DefaultRegion.MaxLon,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
