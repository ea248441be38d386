package sake

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyverge/sake/internal/model"
)

func TestPrintConfig_JSON(t *testing.T) {
	s, tb := newSake(t, setup{})

	require.NoError(t, s.Tasks().Run(context.Background(), "config"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(tb.out.Bytes(), &out))
	assert.Equal(t, workDir, out["workDir"])
	assert.Equal(t, "wc", out["deploy"].(map[string]any)["type"])
	assert.Equal(t, "WooCommerce Foo", out["plugin"].(map[string]any)["name"])
}

func TestPrintConfig_Property(t *testing.T) {
	tests := []struct {
		property string
		want     string
	}{
		{"deploy.type", "wc\n"},
		{"plugin.version.current", "1.2.0-dev.1\n"},
		{"plugin.version.minor", "1.2.0\n"},
		{"deploy.githubRelease", "true\n"},
		{"paths.assetPaths.javascriptSources.0", "assets/js/**/*.js\n"},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			s, tb := newSake(t, setup{options: Options{Property: tt.property}})
			require.NoError(t, s.Tasks().Run(context.Background(), "config"))
			assert.Equal(t, tt.want, tb.out.String())
		})
	}
}

func TestPrintConfig_MissingProperty(t *testing.T) {
	s, _ := newSake(t, setup{options: Options{Property: "deploy.nope"}})

	err := s.Tasks().Run(context.Background(), "config")
	cliErr := requireExitCode(t, err, model.ExitConfigError)
	assert.Equal(t, "Config property deploy.nope is not set", cliErr.Message)
}

func TestPrintConfig_YAML(t *testing.T) {
	s, tb := newSake(t, setup{options: Options{Format: "yaml", Property: "deploy"}})

	require.NoError(t, s.Tasks().Run(context.Background(), "config"))
	assert.Contains(t, tb.out.String(), "type: wc\n")
	assert.Contains(t, tb.out.String(), "githubRelease: true\n")
	assert.Contains(t, tb.out.String(), "dev:\n  url: git@github.com:skyverge/woocommerce-foo\n")
}

func TestPrintConfig_UnknownFormat(t *testing.T) {
	s, _ := newSake(t, setup{options: Options{Format: "toml"}})

	err := s.Tasks().Run(context.Background(), "config")
	requireExitCode(t, err, model.ExitGeneralError)
}

func TestJSONToYAML_QuotesAmbiguousStrings(t *testing.T) {
	out, err := jsonToYAML([]byte(`{"enabled":"true","count":2,"name":"foo"}`))
	require.NoError(t, err)
	assert.Equal(t, "enabled: \"true\"\ncount: 2\nname: foo\n", string(out))
}

func TestListTasks(t *testing.T) {
	s, tb := newSake(t, setup{})

	require.NoError(t, s.Tasks().Run(context.Background(), "tasks"))
	assert.Contains(t, tb.out.String(), "DESCRIPTION")
	assert.Contains(t, tb.out.String(), "Release the plugin")
	assert.Contains(t, tb.out.String(), "wc:deploy")
}
