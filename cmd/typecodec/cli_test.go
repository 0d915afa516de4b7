package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
types:
  Node:
    record:
      fields:
        - {name: value, type: int, required: true}
        - {name: children, type: {list: Node}, required: true}
  Server:
    record:
      fields:
        - {name: host, type: string, required: true}
        - {name: port, type: {type: int, minimum: 1}, default: 8080}
  Box:
    params: [T]
    record:
      fields:
        - {name: item, type: T, required: true}
  Broken:
    record:
      fields:
        - {name: extra, type: int, kind: flatten}
`

func setupFiles(t *testing.T) (cfgPath, schemaPath string) {
	t.Helper()
	dir := t.TempDir()
	schemaPath = filepath.Join(dir, "types.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(schema), 0o644))
	cfgPath = filepath.Join(dir, "typecodec.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("schema: "+schemaPath+"\n"), 0o644))
	return cfgPath, schemaPath
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck(t *testing.T) {
	cfg, _ := setupFiles(t)

	out, _, err := execute(t, "", "--config", cfg, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 types failed to compile")
	assert.Contains(t, out, "✓ Node (recursive)")
	assert.Contains(t, out, "✓ Server\n")
	assert.Contains(t, out, "- Box generic over T")
	assert.Contains(t, out, "✗ Broken")
	assert.Contains(t, out, "not_object_shaped")
}

func TestConvert(t *testing.T) {
	cfg, _ := setupFiles(t)

	out, _, err := execute(t, `{"host": "example.org"}`, "--config", cfg, "convert", "Server", "--compact", "--sort")
	require.NoError(t, err)
	assert.Equal(t, `{"host":"example.org","port":8080}`+"\n", out)
}

func TestConvertSchemaFlagAndPath(t *testing.T) {
	cfg, schemaPath := setupFiles(t)
	require.NoError(t, os.WriteFile(cfg, nil, 0o644))

	in := `{"nodes": [{"value": 1, "children": []}]}`
	out, _, err := execute(t, in, "--config", cfg, "-s", schemaPath, "convert", "Node", "--path", "nodes.0", "--compact", "--sort")
	require.NoError(t, err)
	assert.Equal(t, `{"children":[],"value":1}`+"\n", out)
}

func TestConvertYAML(t *testing.T) {
	cfg, _ := setupFiles(t)
	input := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(input, []byte("host: h\nport: 9000\n"), 0o644))

	out, _, err := execute(t, "", "--config", cfg, "convert", "Server", input, "--output", "yaml", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "(map[string]interface {})")
	assert.Contains(t, out, "host: h\n")
	assert.Contains(t, out, "port: 9000\n")
}

func TestConvertValidationErrors(t *testing.T) {
	cfg, _ := setupFiles(t)

	_, stderr, err := execute(t, `{"port": 0}`, "--config", cfg, "convert", "Server")
	require.Error(t, err)
	assert.Equal(t, "Server: conversion failed", err.Error())
	assert.Contains(t, stderr, "$.host: missing property")
	assert.Contains(t, stderr, "$.port: less than 1 (minimum)")
}

func TestConvertErrors(t *testing.T) {
	cfg, _ := setupFiles(t)

	_, _, err := execute(t, "{}", "--config", cfg, "convert", "Missing")
	require.Error(t, err)

	_, _, err = execute(t, "host: h", "--config", cfg, "convert", "Server", "--format", "yaml", "--path", "a")
	require.EqualError(t, err, "--path needs JSON input")

	empty := filepath.Join(t.TempDir(), "typecodec.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, _, err = execute(t, "{}", "--config", empty, "convert", "Server")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema document")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "typecodec version: dev")
}

func TestExploreModel(t *testing.T) {
	cfg, _ := setupFiles(t)
	a := &app{cfgFile: cfg}
	require.NoError(t, a.setup(newRootCmd(), nil))
	doc, err := a.loadSchema()
	require.NoError(t, err)
	server, err := doc.Lookup("Server")
	require.NoError(t, err)

	m := newExploreModel(a, []typeInfo{{name: "Server", typ: server}})
	assert.Contains(t, m.View(), "Server")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, stateInputValue, m.state)

	m.input.SetValue(`{"host": "h"}`)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, stateShowResult, m.state)
	assert.Contains(t, m.result, `"port": 8080`)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue(`{"port": 1}`)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(cmd())
	assert.Equal(t, []string{"$.host: missing property"}, m.problems)
	assert.Contains(t, m.View(), "missing property")
}
