// Package config loads and validates site.yaml, the per-project
// configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up under the root.
const FileName = "site.yaml"

// Config represents the project configuration.
type Config struct {
	Site  SiteConfig  `yaml:"site"`
	Build BuildConfig `yaml:"build"`
	Paths PathsConfig `yaml:"paths"`
	Tools ToolsConfig `yaml:"tools"`
}

// SiteConfig carries the metadata templates render into every page.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Lang        string `yaml:"lang"`
	BaseURL     string `yaml:"base_url"`
}

// BuildConfig selects build behavior. Prerender is a pointer so an absent
// key and an explicit `prerender: false` stay distinguishable.
type BuildConfig struct {
	Output     string     `yaml:"output"`
	Prerender  *bool      `yaml:"prerender"`
	StaticMode StaticMode `yaml:"static_mode"`
	CheckLinks bool       `yaml:"check_links"`
}

// PathsConfig overrides the conventional project directories. All paths are
// relative to the project root.
type PathsConfig struct {
	Pages     string `yaml:"pages"`
	Source    string `yaml:"source"`
	Public    string `yaml:"public"`
	Styles    string `yaml:"styles"`
	Templates string `yaml:"templates"`
}

// ToolsConfig points at the external executables the build shells out to.
// The bundler runs through a Node driver script so its MDX loader plugin
// can participate. Renderer is a full argv; when empty the built-in
// markdown renderer is used for pre-rendering instead of a subprocess.
type ToolsConfig struct {
	Node     string   `yaml:"node"`
	Tailwind string   `yaml:"tailwind"`
	NPM      string   `yaml:"npm"`
	Renderer []string `yaml:"renderer"`
}

// Default returns the configuration a project gets with an empty or absent
// site.yaml.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified file. Environment variables
// referenced as $VAR or ${VAR} in the YAML body are expanded; a .env or
// .env.local next to the config file is loaded first without overriding
// the process environment.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads <root>/site.yaml, falling back to defaults when the
// file does not exist. Parse and validation errors still propagate.
func LoadOrDefault(root string) (*Config, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "My Site"
	}
	if c.Site.Lang == "" {
		c.Site.Lang = "en"
	}
	if c.Build.Output == "" {
		c.Build.Output = "dist"
	}
	if c.Build.StaticMode == "" {
		c.Build.StaticMode = StaticAssets
	}
	if c.Paths.Pages == "" {
		c.Paths.Pages = "pages"
	}
	if c.Paths.Source == "" {
		c.Paths.Source = "src"
	}
	if c.Paths.Public == "" {
		c.Paths.Public = "public"
	}
	if c.Paths.Styles == "" {
		c.Paths.Styles = "styles"
	}
	if c.Paths.Templates == "" {
		c.Paths.Templates = "templates"
	}
	if c.Tools.Node == "" {
		c.Tools.Node = "node"
	}
	if c.Tools.Tailwind == "" {
		c.Tools.Tailwind = filepath.Join("node_modules", ".bin", "tailwindcss")
	}
	if c.Tools.NPM == "" {
		c.Tools.NPM = "npm"
	}
}

// Validate checks invariants that would otherwise surface as confusing
// mid-build failures.
func (c *Config) Validate() error {
	if !c.Build.StaticMode.Valid() {
		return fmt.Errorf("invalid static_mode %q (want %s, %s, or %s)",
			c.Build.StaticMode, StaticPublicOnly, StaticAssets, StaticAll)
	}
	if c.Build.Output == "" {
		return fmt.Errorf("build.output must not be empty")
	}
	if c.Build.Output == c.Paths.Pages {
		return fmt.Errorf("build.output must differ from the pages directory")
	}
	return nil
}

// Options resolves the configuration into the options struct the pipeline
// consumes. Prerender defaults to true when unset.
func (c *Config) Options() BuildOptions {
	prerender := true
	if c.Build.Prerender != nil {
		prerender = *c.Build.Prerender
	}
	return BuildOptions{
		Prerender:  prerender,
		StaticMode: c.Build.StaticMode,
		CheckLinks: c.Build.CheckLinks,
	}
}

// loadEnvFiles loads .env then .env.local from dir, skipping missing files.
// godotenv never overrides variables already present in the environment.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s couldn't be loaded: %v\n", p, err)
		}
	}
}
