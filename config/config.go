package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tracekit/tracekit-go/contracts"
	"github.com/tracekit/tracekit-go/resolver"
	"github.com/tracekit/tracekit-go/sources"
	"github.com/tracekit/tracekit-go/templates"
	"github.com/tracekit/tracekit-go/typeinfo"
)

// Config is the YAML document describing a tracing setup: attribute sources,
// message templates and resolver policy. It is a declarative front end over
// the programmatic API; everything here can also be built by hand.
type Config struct {
	// PublicOnly restricts resolution to exported operations.
	PublicOnly bool `yaml:"publicOnly"`

	// Templates overrides the per-phase message templates.
	Templates TemplateConfig `yaml:"templates"`

	// NameMatch entries, consulted before MethodMap entries.
	NameMatch []NameMatchEntry `yaml:"nameMatch"`

	// MethodMap entries, expanded eagerly against the type registry.
	MethodMap []MethodMapEntry `yaml:"methodMap"`
}

// TemplateConfig carries optional template text per phase; empty strings
// keep the defaults.
type TemplateConfig struct {
	Enter string `yaml:"enter"`
	Exit  string `yaml:"exit"`
	Error string `yaml:"error"`
}

// NameMatchEntry binds an attribute to a method name pattern.
type NameMatchEntry struct {
	Pattern   string        `yaml:"pattern"`
	Attribute AttributeSpec `yaml:"attribute"`
}

// MethodMapEntry binds an attribute to a fully-qualified
// "Type.methodNamePattern" entry.
type MethodMapEntry struct {
	Method    string        `yaml:"method"`
	Attribute AttributeSpec `yaml:"attribute"`
}

// AttributeSpec is the YAML shape of a TraceAttribute. Enabled and
// LoggerEnabled default to true when omitted.
type AttributeSpec struct {
	Enabled         *bool    `yaml:"enabled"`
	LoggerEnabled   *bool    `yaml:"loggerEnabled"`
	LoggerName      string   `yaml:"loggerName"`
	HandlerRefs     []string `yaml:"handlerRefs"`
	HandlerTypes    []string `yaml:"handlerTypes"`
	PrintStackTrace bool     `yaml:"printStackTrace"`
	Qualifier       string   `yaml:"qualifier"`
}

// Load parses a configuration document.
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing trace config: %w", err)
	}
	return &cfg, nil
}

// LoadFile parses a configuration document from disk.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace config: %w", err)
	}
	return Load(data)
}

// Attribute materializes the spec into an immutable TraceAttribute,
// surfacing configuration errors (like setting both handler refs and
// handler types) at load time.
func (s AttributeSpec) Attribute() (*contracts.TraceAttribute, error) {
	opts := []contracts.AttributeOption{
		contracts.WithPrintStackTrace(s.PrintStackTrace),
	}
	if s.Enabled != nil {
		opts = append(opts, contracts.WithEnabled(*s.Enabled))
	}
	if s.LoggerEnabled != nil {
		opts = append(opts, contracts.WithLoggerEnabled(*s.LoggerEnabled))
	}
	if s.LoggerName != "" {
		opts = append(opts, contracts.WithLoggerName(s.LoggerName))
	}
	if s.Qualifier != "" {
		opts = append(opts, contracts.WithQualifier(s.Qualifier))
	}
	if len(s.HandlerRefs) > 0 {
		opts = append(opts, contracts.WithHandlerRefs(s.HandlerRefs...))
	}
	if len(s.HandlerTypes) > 0 {
		refs := make([]contracts.TypeRef, len(s.HandlerTypes))
		for i, q := range s.HandlerTypes {
			refs[i] = contracts.TypeRef{Qualified: q}
		}
		opts = append(opts, contracts.WithHandlerTypes(refs...))
	}
	return contracts.NewTraceAttribute(opts...)
}

// BuildTemplates materializes the template set, applying any overrides.
func (c *Config) BuildTemplates() (*templates.Set, error) {
	set := templates.NewSet()
	if c.Templates.Enter != "" {
		if err := set.SetEnter(c.Templates.Enter); err != nil {
			return nil, err
		}
	}
	if c.Templates.Exit != "" {
		if err := set.SetExit(c.Templates.Exit); err != nil {
			return nil, err
		}
	}
	if c.Templates.Error != "" {
		if err := set.SetError(c.Templates.Error); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// BuildSource materializes the configured attribute sources into one
// composite source. The type registry is required when method-map entries
// are present, for eager pattern expansion.
func (c *Config) BuildSource(types *typeinfo.Registry, logger *slog.Logger) (contracts.AttributeSource, error) {
	var combined []contracts.AttributeSource

	if len(c.NameMatch) > 0 {
		nameMatch := sources.NewNameMatchSource(logger)
		for _, entry := range c.NameMatch {
			if entry.Pattern == "" {
				return nil, fmt.Errorf("nameMatch entry without pattern")
			}
			attr, err := entry.Attribute.Attribute()
			if err != nil {
				return nil, fmt.Errorf("nameMatch %q: %w", entry.Pattern, err)
			}
			nameMatch.AddTraceableOperation(entry.Pattern, attr)
		}
		combined = append(combined, nameMatch)
	}

	if len(c.MethodMap) > 0 {
		if types == nil {
			return nil, fmt.Errorf("methodMap entries need a type registry")
		}
		methodMap, err := sources.NewMethodMapSource(types, logger)
		if err != nil {
			return nil, err
		}
		for _, entry := range c.MethodMap {
			attr, err := entry.Attribute.Attribute()
			if err != nil {
				return nil, fmt.Errorf("methodMap %q: %w", entry.Method, err)
			}
			if err := methodMap.AddTraceableMethod(entry.Method, attr); err != nil {
				return nil, err
			}
		}
		combined = append(combined, methodMap)
	}

	if len(combined) == 0 {
		return nil, contracts.ErrMissingSource
	}
	return sources.NewCompositeSource(combined...)
}

// BuildResolver materializes a fallback resolver from the configured
// sources and policy.
func (c *Config) BuildResolver(types *typeinfo.Registry, logger *slog.Logger) (*resolver.FallbackResolver, error) {
	source, err := c.BuildSource(types, logger)
	if err != nil {
		return nil, err
	}

	opts := []resolver.Option{resolver.WithPublicOnly(c.PublicOnly)}
	if logger != nil {
		opts = append(opts, resolver.WithLogger(logger))
	}
	if types != nil {
		opts = append(opts, resolver.WithMethodResolver(types))
	}
	return resolver.New(source, opts...)
}
