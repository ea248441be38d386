package sake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/skyverge/sake/internal/model"
)

var (
	highlight = color.New(color.FgCyan, color.Bold).SprintFunc()
	muted     = color.New(color.FgHiBlack).SprintFunc()
	success   = color.New(color.FgGreen).SprintFunc()
	warning   = color.New(color.FgYellow).SprintFunc()
)

// listTasks prints every registered task with its description.
func (s *Sake) listTasks(_ context.Context) error {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow(color.New(color.Bold).Sprint("TASK"), color.New(color.Bold).Sprint("DESCRIPTION"))
	for _, t := range s.tasks.List() {
		table.AddRow(highlight(t.Name), t.Description)
	}
	_, err := fmt.Fprintln(s.Out, table)
	return err
}

// configJSON renders the resolved configuration with the plugin metadata
// under "plugin".
func (s *Sake) configJSON() ([]byte, error) {
	data, err := json.Marshal(s.Config)
	if err != nil {
		return nil, err
	}
	if s.Plugin == nil {
		return data, nil
	}
	return sjson.SetBytes(data, "plugin", s.Plugin)
}

// printConfig prints the configuration, or one --property of it, as JSON
// or YAML.
func (s *Sake) printConfig(_ context.Context) error {
	data, err := s.configJSON()
	if err != nil {
		return err
	}

	if s.Options.Property != "" {
		res := gjson.GetBytes(data, s.Options.Property)
		if !res.Exists() {
			return model.NewCLIError(model.ExitConfigError, fmt.Sprintf("Config property %s is not set", s.Options.Property))
		}
		if res.Type == gjson.String {
			_, err := fmt.Fprintln(s.Out, res.String())
			return err
		}
		data = []byte(res.Raw)
	}

	var out []byte
	switch strings.ToLower(s.Options.Format) {
	case "yaml", "yml":
		out, err = jsonToYAML(data)
	case "", "json":
		var buf bytes.Buffer
		err = json.Indent(&buf, data, "", "  ")
		buf.WriteByte('\n')
		out = buf.Bytes()
	default:
		return model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("Unknown format %q, use json or yaml", s.Options.Format))
	}
	if err != nil {
		return err
	}
	_, err = s.Out.Write(out)
	return err
}

// jsonToYAML re-encodes JSON as block-style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	plainStyle(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// plainStyle drops the flow and quoting styles the JSON input implies.
// Strings that would read as another type keep their quotes.
func plainStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		n.Style = 0
		for _, c := range n.Content {
			plainStyle(c)
		}
	case yaml.DocumentNode:
		for _, c := range n.Content {
			plainStyle(c)
		}
	case yaml.ScalarNode:
		if n.Tag == "!!str" && n.Style == yaml.DoubleQuotedStyle {
			n.Style = 0
		}
	}
}
