package config

import (
	"fmt"
	"regexp"

	"github.com/dop251/goja"
)

var exportDefault = regexp.MustCompile(`(?m)^(\s*)export\s+default\s+`)

// evalJS runs a sake.config.js file and returns the value it exported.
//
// Config files are CommonJS modules (module.exports = {...}) or use an ES
// default export, which is rewritten to a module.exports assignment before
// evaluation. process.env exposes env. require() is not available: config
// files are plain data with the occasional environment lookup.
func evalJS(name string, src []byte, env map[string]string) (map[string]any, error) {
	vm := goja.New()

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}

	envObj := vm.NewObject()
	for k, v := range env {
		if err := envObj.Set(k, v); err != nil {
			return nil, err
		}
	}
	process := vm.NewObject()
	if err := process.Set("env", envObj); err != nil {
		return nil, err
	}

	for k, v := range map[string]any{
		"module":  module,
		"exports": exports,
		"process": process,
		"require": func(call goja.FunctionCall) goja.Value {
			panic(vm.NewGoError(fmt.Errorf("require(%s) is not supported in sake config files", call.Argument(0))))
		},
	} {
		if err := vm.Set(k, v); err != nil {
			return nil, err
		}
	}

	code := exportDefault.ReplaceAllString(string(src), "${1}module.exports = ")
	if _, err := vm.RunScript(name, code); err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", name, err)
	}

	exported := module.Get("exports")
	if exported == nil || goja.IsUndefined(exported) || goja.IsNull(exported) {
		return map[string]any{}, nil
	}
	m, ok := exported.Export().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must export an object, got %s", name, exported.ExportType())
	}
	return m, nil
}
