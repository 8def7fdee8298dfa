package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".mediaid"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
	// DefaultContextName is the context created with a fresh config
	DefaultContextName = "default"
)

// Config represents the configuration file
type Config struct {
	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Context is a named dataset profile
type Context struct {
	// Name is the context name
	Name string `yaml:"name" json:"name"`

	Face   FaceSettings   `yaml:"face" json:"face"`
	Voice  VoiceSettings  `yaml:"voice" json:"voice"`
	Record RecordSettings `yaml:"record" json:"record"`
	Log    LogConfig      `yaml:"log" json:"log"`
}

// FaceSettings configures the face histogram classifier
type FaceSettings struct {
	ImageDir  string   `yaml:"image_dir" json:"image_dir"`
	Labels    string   `yaml:"labels" json:"labels"`
	Pattern   string   `yaml:"pattern" json:"pattern"`
	Count     int      `yaml:"count" json:"count"`
	Names     []string `yaml:"names" json:"names"`
	TrainSize int      `yaml:"train_size" json:"train_size"`
	K         int      `yaml:"k" json:"k"`
	Seed      uint64   `yaml:"seed" json:"seed"`
}

// VoiceSettings configures the speaker identifier and the wav splitter
type VoiceSettings struct {
	// Dir holds the labelled clips, {speaker}_{n}.wav
	Dir      string         `yaml:"dir" json:"dir"`
	TestSize int            `yaml:"test_size" json:"test_size"`
	Seed     uint64         `yaml:"seed" json:"seed"`
	Gamma    float64        `yaml:"gamma" json:"gamma"`
	C        float64        `yaml:"c" json:"c"`
	// Features is the frame feature kind, "mfcc" or "logmel"
	Features string         `yaml:"features" json:"features"`
	CMVN     bool           `yaml:"cmvn,omitempty" json:"cmvn,omitempty"`
	Speakers []SpeakerEntry `yaml:"speakers" json:"speakers"`
}

// SpeakerEntry maps a speaker name to its label
type SpeakerEntry struct {
	Name string `yaml:"name" json:"name"`
	ID   int    `yaml:"id" json:"id"`
}

// RecordSettings configures voice capture
type RecordSettings struct {
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`
	Channels   int `yaml:"channels" json:"channels"`
	// BufferMS is the capture buffer length in milliseconds
	BufferMS int `yaml:"buffer_ms" json:"buffer_ms"`
}

// NewContext returns a context with the reference dataset layout.
func NewContext(name string) *Context {
	ctx := &Context{Name: name}
	ctx.ApplyDefaults()
	return ctx
}

// ApplyDefaults fills unset fields with the reference dataset layout.
func (ctx *Context) ApplyDefaults() {
	f := &ctx.Face
	if f.ImageDir == "" {
		f.ImageDir = "anime_img"
	}
	if f.Labels == "" {
		f.Labels = "classified.csv"
	}
	if f.Pattern == "" {
		f.Pattern = "%d.jpg"
	}
	if f.Count == 0 {
		f.Count = 100
	}
	if len(f.Names) == 0 {
		f.Names = []string{"Norman", "Emma", "Ray"}
	}
	if f.TrainSize == 0 {
		f.TrainSize = 80
	}
	if f.K == 0 {
		f.K = 5
	}

	v := &ctx.Voice
	if v.Dir == "" {
		v.Dir = "voiceset"
	}
	if v.TestSize == 0 {
		v.TestSize = 30
	}
	if v.Gamma == 0 {
		v.Gamma = 1e-4
	}
	if v.C == 0 {
		v.C = 1
	}
	if v.Features == "" {
		v.Features = "mfcc"
	}
	if len(v.Speakers) == 0 {
		v.Speakers = []SpeakerEntry{
			{Name: "kana", ID: 0},
			{Name: "ayana", ID: 1},
			{Name: "miku", ID: 2},
			{Name: "ayane", ID: 3},
			{Name: "inori", ID: 4},
		}
	}

	r := &ctx.Record
	if r.SampleRate == 0 {
		r.SampleRate = 44100
	}
	if r.Channels == 0 {
		r.Channels = 2
	}
	if r.BufferMS == 0 {
		r.BufferMS = 100
	}

	if ctx.Log.Level == "" {
		ctx.Log.Level = "info"
	}
}

// LoadConfig loads the configuration from customPath, or from
// ~/.mediaid/config.yaml when customPath is empty. A missing file is
// created holding a single default context.
func LoadConfig(customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Contexts[DefaultContextName] = NewContext(DefaultContextName)
			cfg.CurrentContext = DefaultContextName
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			ctx = &Context{}
			cfg.Contexts[name] = ctx
		}
		ctx.Name = name
		ctx.ApplyDefaults()
	}
	cfg.configPath = configPath

	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// AddContext adds or replaces a context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	ctx.ApplyDefaults()
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns the context by name, or the current context if
// name is empty. With neither set it falls back to built-in defaults.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return NewContext(DefaultContextName), nil
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
