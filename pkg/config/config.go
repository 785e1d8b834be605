package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fulmenhq/docmaint/internal/keywords"
)

// FileName is the base name of the YAML config file searched in the working directory and $HOME.
const FileName = ".docmaint"

// Config holds all configuration for docmaint
type Config struct {
	Root             string          `mapstructure:"root"`
	DocsRoot         string          `mapstructure:"docs_root"`
	SourceDir        string          `mapstructure:"source_dir"`
	ReportPath       string          `mapstructure:"report_path"`
	DryRun           bool            `mapstructure:"dry_run"`
	RespectGitignore bool            `mapstructure:"respect_gitignore"`
	RootAllowlist    []string        `mapstructure:"root_allowlist"`
	SourceIgnore     []string        `mapstructure:"source_ignore"`
	DocsIgnore       []string        `mapstructure:"docs_ignore"`
	MigrationRules   []MigrationRule `mapstructure:"migration_rules"`
	Keywords         KeywordsConfig  `mapstructure:"keywords"`
	// Plugins restricts the run to these plugin names; empty means all.
	Plugins []string `mapstructure:"plugins"`

	// ConfigFile is the file the values were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// MigrationRule rewrites a legacy link path. Pattern is a regular expression.
type MigrationRule struct {
	Pattern     string `mapstructure:"pattern"`
	Replacement string `mapstructure:"replacement"`
}

// KeywordsConfig overrides the built-in vocabularies. Empty term lists keep the defaults.
type KeywordsConfig struct {
	API    VocabularyConfig `mapstructure:"api"`
	User   VocabularyConfig `mapstructure:"user"`
	System VocabularyConfig `mapstructure:"system"`
}

// VocabularyConfig is one weighted term list.
type VocabularyConfig struct {
	Weight int      `mapstructure:"weight"`
	Terms  []string `mapstructure:"terms"`
}

// LoadOptions tells Load where to look besides the default search path.
type LoadOptions struct {
	// ConfigFile, when set, must exist and is used instead of the search path.
	ConfigFile string
	// Flags are bound last, so explicitly set flags win over file and env values.
	Flags *pflag.FlagSet
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"root":              "root",
	"docs":              "docs_root",
	"src":               "source_dir",
	"report":            "report_path",
	"dry-run":           "dry_run",
	"only":              "plugins",
	"respect-gitignore": "respect_gitignore",
}

// DefaultRootAllowlist names root-level markdown files that stay where they are.
func DefaultRootAllowlist() []string {
	return []string{
		"README.md", "CHANGELOG.md", "CONTRIBUTING.md", "LICENSE.md", "CODE_OF_CONDUCT.md",
		"SECURITY.md", "AGENT.md", "AGENTS.md", "CLAUDE.md",
	}
}

// DefaultMigrationRules maps legacy documentation prefixes to the current layout.
// Each rule is tried in order against the original link; the first result
// that exists on disk wins.
func DefaultMigrationRules() []MigrationRule {
	return []MigrationRule{
		{Pattern: `_sys_documents/design/`, Replacement: "system/design/"},
		{Pattern: `_sys_documents/execution/`, Replacement: "system/execution/"},
		{Pattern: `_sys_documents/as-builts/`, Replacement: "system/as-builts/"},
		{Pattern: `_sys_documents/plans/`, Replacement: "system/plans/"},
		{Pattern: `_sys_documents/vision/`, Replacement: "system/vision/"},
		{Pattern: `_sys_documents/roadmap/`, Replacement: "system/roadmap/"},
		{Pattern: `_sys_documents/`, Replacement: "system/"},
		{Pattern: `_user_documents/`, Replacement: "user-docs/"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("docs_root", "docs")
	v.SetDefault("source_dir", "src")
	v.SetDefault("report_path", ".maintenance-report.md")
	v.SetDefault("dry_run", false)
	v.SetDefault("respect_gitignore", false)
	v.SetDefault("root_allowlist", DefaultRootAllowlist())
	v.SetDefault("source_ignore", []string{"**/node_modules/**", "/README.md", "/AGENT.md"})
	v.SetDefault("docs_ignore", []string{"**/node_modules/**"})
	v.SetDefault("plugins", []string{})
	for _, name := range []string{"api", "user", "system"} {
		v.SetDefault("keywords."+name+".weight", 1)
		v.SetDefault("keywords."+name+".terms", []string{})
	}
}

// Load reads defaults, the optional config file, DOCMAINT_* environment
// variables and finally flags. A config file that fails schema validation is
// an error; a missing one is not.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("DOCMAINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	used := v.ConfigFileUsed()
	if used != "" {
		raw, err := os.ReadFile(filepath.Clean(used))
		if err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		if err := ValidateYAML(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", used, err)
		}
	}

	if opts.Flags != nil {
		for flag, key := range flagKeys {
			if f := opts.Flags.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ConfigFile = used
	if len(cfg.MigrationRules) == 0 {
		cfg.MigrationRules = DefaultMigrationRules()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file, env or flag is set.
func Default() *Config {
	return &Config{
		Root:           ".",
		DocsRoot:       "docs",
		SourceDir:      "src",
		ReportPath:     ".maintenance-report.md",
		RootAllowlist:  DefaultRootAllowlist(),
		SourceIgnore:   []string{"**/node_modules/**", "/README.md", "/AGENT.md"},
		DocsIgnore:     []string{"**/node_modules/**"},
		MigrationRules: DefaultMigrationRules(),
		Keywords: KeywordsConfig{
			API:    VocabularyConfig{Weight: 1},
			User:   VocabularyConfig{Weight: 1},
			System: VocabularyConfig{Weight: 1},
		},
	}
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	for i, r := range c.MigrationRules {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("migration_rules[%d]: invalid pattern %q: %w", i, r.Pattern, err)
		}
	}
	if strings.TrimSpace(c.DocsRoot) == "" {
		return errors.New("docs_root must not be empty")
	}
	if strings.TrimSpace(c.ReportPath) == "" {
		return errors.New("report_path must not be empty")
	}
	return nil
}

// Resolve makes Root absolute and anchors relative docs/source paths at it.
// The report path stays relative to the working directory.
func (c *Config) Resolve() error {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	c.Root = root
	if !filepath.IsAbs(c.DocsRoot) {
		c.DocsRoot = filepath.Join(root, c.DocsRoot)
	}
	if !filepath.IsAbs(c.SourceDir) {
		c.SourceDir = filepath.Join(root, c.SourceDir)
	}
	return nil
}

// Tables builds the classification tables, applying vocabulary overrides.
func (c *Config) Tables() keywords.Tables {
	tables := keywords.Default()
	overrides := map[string]VocabularyConfig{
		"api":    c.Keywords.API,
		"user":   c.Keywords.User,
		"system": c.Keywords.System,
	}
	for i, voc := range tables.Vocabularies {
		o, ok := overrides[voc.Name]
		if !ok {
			continue
		}
		if o.Weight > 0 {
			tables.Vocabularies[i].Weight = o.Weight
		}
		if len(o.Terms) > 0 {
			tables.Vocabularies[i].Terms = append([]string(nil), o.Terms...)
		}
	}
	return tables
}

// CompiledRule is a MigrationRule with its regular expression compiled.
type CompiledRule struct {
	Re          *regexp.Regexp
	Replacement string
}

// CompiledRules compiles MigrationRules in order. Call Validate first.
func (c *Config) CompiledRules() []CompiledRule {
	out := make([]CompiledRule, 0, len(c.MigrationRules))
	for _, r := range c.MigrationRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			continue
		}
		out = append(out, CompiledRule{Re: re, Replacement: r.Replacement})
	}
	return out
}
