package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracekit/tracekit-go/contracts"
	"github.com/tracekit/tracekit-go/templates"
	"github.com/tracekit/tracekit-go/typeinfo"
)

var userService = contracts.TypeRef{Qualified: "acme/app.UserService"}

func saveUser() contracts.Operation {
	return contracts.Operation{Name: "SaveUser", Declaring: userService, Params: []string{"string"}, Exported: true}
}

func newUserServiceRegistry(t *testing.T) *typeinfo.Registry {
	t.Helper()
	reg := typeinfo.NewRegistry()
	require.NoError(t, reg.RegisterType(userService,
		contracts.Operation{Name: "SaveUser", Params: []string{"string"}, Exported: true},
		contracts.Operation{Name: "GetUser", Params: []string{"int64"}, Returns: "string", Exported: true},
	))
	return reg
}

func TestLoad(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		cfg, err := Load([]byte(`
publicOnly: true
templates:
  exit: "done in $[elapsedTime]ms"
nameMatch:
  - pattern: "Save*"
    attribute:
      loggerName: audit
      printStackTrace: true
methodMap:
  - method: "acme/app.UserService.Get*"
    attribute:
      loggerEnabled: false
`))
		require.NoError(t, err)

		assert.True(t, cfg.PublicOnly)
		assert.Equal(t, "done in $[elapsedTime]ms", cfg.Templates.Exit)
		require.Len(t, cfg.NameMatch, 1)
		assert.Equal(t, "Save*", cfg.NameMatch[0].Pattern)
		require.Len(t, cfg.MethodMap, 1)
		assert.Equal(t, "acme/app.UserService.Get*", cfg.MethodMap[0].Method)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load([]byte("nameMatch: {not a list"))
		assert.Error(t, err)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trace.yaml")
		require.NoError(t, os.WriteFile(path, []byte("publicOnly: true\n"), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.True(t, cfg.PublicOnly)

		_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestAttributeSpec(t *testing.T) {
	t.Run("omitted switches default to enabled", func(t *testing.T) {
		attr, err := AttributeSpec{}.Attribute()
		require.NoError(t, err)

		assert.True(t, attr.Enabled())
		assert.True(t, attr.LoggerEnabled())
	})

	t.Run("explicit false survives materialization", func(t *testing.T) {
		off := false
		attr, err := AttributeSpec{Enabled: &off, LoggerEnabled: &off}.Attribute()
		require.NoError(t, err)

		assert.False(t, attr.Enabled())
		assert.False(t, attr.LoggerEnabled())
	})

	t.Run("handler refs and types are mutually exclusive", func(t *testing.T) {
		_, err := AttributeSpec{
			HandlerRefs:  []string{"audit"},
			HandlerTypes: []string{"acme/app.AuditHandler"},
		}.Attribute()

		assert.ErrorIs(t, err, contracts.ErrHandlerConflict)
	})

	t.Run("handler types become type refs", func(t *testing.T) {
		attr, err := AttributeSpec{HandlerTypes: []string{"acme/app.AuditHandler"}}.Attribute()
		require.NoError(t, err)

		assert.Equal(t, []contracts.TypeRef{{Qualified: "acme/app.AuditHandler"}}, attr.HandlerTypes())
	})
}

func TestBuildTemplates(t *testing.T) {
	t.Run("empty overrides keep the defaults", func(t *testing.T) {
		set, err := (&Config{}).BuildTemplates()
		require.NoError(t, err)

		assert.Equal(t, templates.DefaultEnterMessage, set.Enter().Text())
		assert.Equal(t, templates.DefaultExitMessage, set.Exit().Text())
		assert.Equal(t, templates.DefaultErrorMessage, set.Error().Text())
	})

	t.Run("overrides apply per phase", func(t *testing.T) {
		cfg := &Config{Templates: TemplateConfig{Exit: "done $[returnValue]"}}

		set, err := cfg.BuildTemplates()
		require.NoError(t, err)

		assert.Equal(t, "done $[returnValue]", set.Exit().Text())
		assert.Equal(t, templates.DefaultEnterMessage, set.Enter().Text())
	})

	t.Run("invalid overrides are rejected at build time", func(t *testing.T) {
		cfg := &Config{Templates: TemplateConfig{Exit: "done $[error]"}}

		_, err := cfg.BuildTemplates()
		assert.Error(t, err)
	})
}

func TestBuildSource(t *testing.T) {
	t.Run("no entries is an error", func(t *testing.T) {
		_, err := (&Config{}).BuildSource(nil, nil)
		assert.ErrorIs(t, err, contracts.ErrMissingSource)
	})

	t.Run("name match entries need a pattern", func(t *testing.T) {
		cfg := &Config{NameMatch: []NameMatchEntry{{}}}

		_, err := cfg.BuildSource(nil, nil)
		assert.Error(t, err)
	})

	t.Run("method map entries need a type registry", func(t *testing.T) {
		cfg := &Config{MethodMap: []MethodMapEntry{{Method: "acme/app.UserService.Save*"}}}

		_, err := cfg.BuildSource(nil, nil)
		assert.Error(t, err)
	})

	t.Run("attribute errors surface with their entry", func(t *testing.T) {
		cfg := &Config{NameMatch: []NameMatchEntry{{
			Pattern: "Save*",
			Attribute: AttributeSpec{
				HandlerRefs:  []string{"audit"},
				HandlerTypes: []string{"acme/app.AuditHandler"},
			},
		}}}

		_, err := cfg.BuildSource(nil, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, contracts.ErrHandlerConflict)
		assert.Contains(t, err.Error(), "Save*")
	})

	t.Run("name match entries consult before method map entries", func(t *testing.T) {
		cfg := &Config{
			NameMatch: []NameMatchEntry{{Pattern: "Save*", Attribute: AttributeSpec{LoggerName: "name"}}},
			MethodMap: []MethodMapEntry{{Method: "acme/app.UserService.*", Attribute: AttributeSpec{LoggerName: "method"}}},
		}

		source, err := cfg.BuildSource(newUserServiceRegistry(t), nil)
		require.NoError(t, err)

		saved := source.OperationAttribute(saveUser(), userService)
		require.NotNil(t, saved)
		assert.Equal(t, "name", saved.LoggerName())

		got := source.OperationAttribute(contracts.Operation{
			Name: "GetUser", Declaring: userService, Params: []string{"int64"}, Returns: "string", Exported: true,
		}, userService)
		require.NotNil(t, got)
		assert.Equal(t, "method", got.LoggerName())
	})
}

func TestBuildResolver(t *testing.T) {
	t.Run("end to end resolution", func(t *testing.T) {
		cfg := &Config{
			PublicOnly: true,
			NameMatch:  []NameMatchEntry{{Pattern: "Save*", Attribute: AttributeSpec{}}},
		}

		r, err := cfg.BuildResolver(newUserServiceRegistry(t), nil)
		require.NoError(t, err)

		resolved := r.Resolve(saveUser(), userService)
		require.NotNil(t, resolved)
		assert.Equal(t, "acme/app.UserService.SaveUser(string)", resolved.Descriptor())

		unexported := contracts.Operation{Name: "saveDraft", Declaring: userService, Params: nil}
		assert.Nil(t, r.Resolve(unexported, userService))
	})

	t.Run("source errors propagate", func(t *testing.T) {
		_, err := (&Config{}).BuildResolver(nil, nil)
		assert.ErrorIs(t, err, contracts.ErrMissingSource)
	})
}
