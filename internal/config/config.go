// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatbots-tui/internal/engine"
	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/pipeline"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete chatbots configuration.
type Config struct {
	Settings   SettingsConfig   `toml:"settings"`
	Generation GenerationConfig `toml:"generation"`
	Paths      PathsConfig      `toml:"paths"`
	Log        LogConfig        `toml:"log"`

	// home is the directory the config was loaded from. Relative and empty
	// paths resolve against it.
	home string
}

// SettingsConfig holds the user-facing settings.
type SettingsConfig struct {
	// OpenSidebarWhenLaunched is "y" or "n".
	OpenSidebarWhenLaunched string `toml:"open_sidebar_when_launched"`
	Model                   string `toml:"model"`
	Parameters              string `toml:"parameters"`
	Quantization            string `toml:"quantization"`
	// Device is "GPU" or "CPU".
	Device string `toml:"device"`
}

// GenerationConfig bounds each reply.
type GenerationConfig struct {
	MaxNewTokens int `toml:"max_new_tokens"`
}

// PathsConfig overrides where chats and models live. Empty means the
// default under the home directory.
type PathsConfig struct {
	ChatsDir  string `toml:"chats_dir"`
	ModelsDir string `toml:"models_dir"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `toml:"level"`
	// File defaults to <home>/chatbots.log.
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// HomeEnv overrides the home directory.
	HomeEnv = "CHATBOTS_HOME"

	// FileName is the config file inside the home directory.
	FileName = "config.toml"

	defaultHomeDir = ".chatbots"
	defaultLogFile = "chatbots.log"
)

// Default returns a Config with the out-of-the-box settings.
func Default() *Config {
	return &Config{
		Settings: SettingsConfig{
			OpenSidebarWhenLaunched: "y",
			Model:                   "Gemma 3",
			Parameters:              "4B",
			Quantization:            "4-bit",
			Device:                  engine.DeviceGPU,
		},
		Generation: GenerationConfig{
			MaxNewTokens: engine.DefaultMaxNewTokens,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// HomeDir returns $CHATBOTS_HOME, or ~/.chatbots when it is unset.
func HomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return expandHome(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, defaultHomeDir), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Home returns the directory this config resolves paths against.
func (c *Config) Home() string {
	return c.home
}

// SetHome changes the directory paths resolve against.
func (c *Config) SetHome(dir string) {
	c.home = dir
}

func (c *Config) resolve(path, fallback string) string {
	if path == "" {
		return filepath.Join(c.home, fallback)
	}
	if expanded, err := expandHome(path); err == nil {
		path = expanded
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.home, path)
}

// ChatsDir returns the transcript directory.
func (c *Config) ChatsDir() string {
	return c.resolve(c.Paths.ChatsDir, "chats")
}

// ModelsDir returns the directory holding one subdirectory per model.
func (c *Config) ModelsDir() string {
	return c.resolve(c.Paths.ModelsDir, "models")
}

// LogFile returns the log file path.
func (c *Config) LogFile() string {
	return c.resolve(c.Log.File, defaultLogFile)
}

// ConfigFile returns the path Save writes to.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.home, FileName)
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// SidebarOnLaunch reports whether the sidebar starts open.
func (c *Config) SidebarOnLaunch() bool {
	return strings.EqualFold(c.Settings.OpenSidebarWhenLaunched, "y")
}

// PipelineSettings projects the keys that select a model.
func (c *Config) PipelineSettings() pipeline.Settings {
	return pipeline.Settings{
		Model:        c.Settings.Model,
		Parameters:   c.Settings.Parameters,
		Quantization: c.Settings.Quantization,
		Device:       engine.NormalizeDevice(c.Settings.Device),
	}
}

// GenerationSettings returns the per-reply generation bounds.
func (c *Config) GenerationSettings() engine.GenerationConfig {
	return engine.GenerationConfig{MaxNewTokens: c.Generation.MaxNewTokens}
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file from the home directory. A missing file
// yields the defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(filepath.Join(home, FileName))
}

// LoadFromPath reads the config at path. Its directory becomes the home
// directory. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	cfg.home = filepath.Dir(path)

	meta, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.For("config").Debug("no config file, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	default:
		for _, key := range meta.Undecoded() {
			logging.For("config").Warn("unknown config key", "key", key.String(), "path", path)
		}
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults replaces empty values with defaults. A file that sets only
// some keys still yields a complete config.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Settings.OpenSidebarWhenLaunched == "" {
		cfg.Settings.OpenSidebarWhenLaunched = defaults.Settings.OpenSidebarWhenLaunched
	}
	if cfg.Settings.Model == "" {
		cfg.Settings.Model = defaults.Settings.Model
	}
	if cfg.Settings.Parameters == "" {
		cfg.Settings.Parameters = defaults.Settings.Parameters
	}
	if cfg.Settings.Quantization == "" {
		cfg.Settings.Quantization = defaults.Settings.Quantization
	}
	if cfg.Settings.Device == "" {
		cfg.Settings.Device = defaults.Settings.Device
	}
	if cfg.Generation.MaxNewTokens == 0 {
		cfg.Generation.MaxNewTokens = defaults.Generation.MaxNewTokens
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const fileHeader = "# chatbots configuration file\n# Generated by chatbots - edit with care\n\n"

// Save writes the config to its home directory.
func (c *Config) Save() error {
	return c.SaveTo(c.ConfigFile())
}

// SaveTo writes the config to path, replacing the file atomically.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid field.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns ValidateErrors when any is
// invalid.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch strings.ToLower(c.Settings.OpenSidebarWhenLaunched) {
	case "y", "n":
	default:
		errs = append(errs, ValidationError{
			Field:   "settings.open_sidebar_when_launched",
			Message: fmt.Sprintf("invalid value '%s', must be y or n", c.Settings.OpenSidebarWhenLaunched),
		})
	}

	// These name a directory under the models dir.
	for _, f := range []struct{ field, value string }{
		{"settings.model", c.Settings.Model},
		{"settings.parameters", c.Settings.Parameters},
		{"settings.quantization", c.Settings.Quantization},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, ValidationError{Field: f.field, Message: "must not be empty"})
		} else if strings.ContainsAny(f.value, `/\`) || f.value == ".." {
			errs = append(errs, ValidationError{Field: f.field, Message: "must not contain path separators"})
		}
	}

	if !engine.ValidDevice(c.Settings.Device) {
		errs = append(errs, ValidationError{
			Field:   "settings.device",
			Message: fmt.Sprintf("invalid device '%s', must be one of: GPU, CPU", c.Settings.Device),
		})
	}

	if c.Generation.MaxNewTokens <= 0 {
		errs = append(errs, ValidationError{
			Field:   "generation.max_new_tokens",
			Message: fmt.Sprintf("must be positive, got %d", c.Generation.MaxNewTokens),
		})
	}

	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of the file.
//
// Supported environment variables:
//   - CHATBOTS_MODEL: overrides settings.model
//   - CHATBOTS_DEVICE: overrides settings.device
//   - CHATBOTS_CHATS_DIR: overrides paths.chats_dir
//   - CHATBOTS_MODELS_DIR: overrides paths.models_dir
//   - CHATBOTS_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("CHATBOTS_MODEL"); model != "" {
		c.Settings.Model = model
	}
	if device := os.Getenv("CHATBOTS_DEVICE"); device != "" {
		c.Settings.Device = device
	}
	if dir := os.Getenv("CHATBOTS_CHATS_DIR"); dir != "" {
		c.Paths.ChatsDir = dir
	}
	if dir := os.Getenv("CHATBOTS_MODELS_DIR"); dir != "" {
		c.Paths.ModelsDir = dir
	}
	if level := os.Getenv("CHATBOTS_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// aliases maps the settings' display names to their dotted keys.
var aliases = map[string]string{
	"opensidebarwhenlaunched": "settings.open_sidebar_when_launched",
	"model":                   "settings.model",
	"parameters":              "settings.parameters",
	"quantization":            "settings.quantization",
	"device":                  "settings.device",
}

// ResolveKey maps an alias such as "Model" to its dotted key. Other keys
// are returned unchanged.
func ResolveKey(key string) string {
	if full, ok := aliases[strings.ToLower(key)]; ok {
		return full
	}
	return key
}

// Get retrieves a value by dotted key (e.g. "settings.device") or alias.
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dotted key or alias. String values are converted
// to the field's type. Set does not validate; call Validate afterwards.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	key = ResolveKey(strings.TrimSpace(key))
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		// Unexported fields are not part of the file.
		if !field.IsValid() || !field.CanSet() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns every configuration key in dot notation.
func GetAllKeys() []string {
	return []string{
		"settings.open_sidebar_when_launched",
		"settings.model",
		"settings.parameters",
		"settings.quantization",
		"settings.device",
		"generation.max_new_tokens",
		"paths.chats_dir",
		"paths.models_dir",
		"log.level",
		"log.file",
	}
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
