package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runValidate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := createValidateCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	err := executeValidate(cmd, args)
	return out.String(), err
}

func TestValidateCommand_Fixtures(t *testing.T) {
	s, err := runValidate(t, filepath.Join("testdata", "application.yaml"), filepath.Join("testdata", "extensions"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(s, "1 application(s) and 5 extension manifest(s) valid") {
		t.Fatalf("unexpected output %q", s)
	}
}

func TestValidateCommand_SchemaViolation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	doc := `apiVersion: build.bindery.dev/v1alpha1
kind: ExtensionManifest
metadata: {name: bad}
spec:
  artifact: {groupId: io.acme, artifactId: bad}
`
	if err := os.WriteFile(file, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := runValidate(t, file); err == nil || !strings.Contains(err.Error(), "schema validation") {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestValidateCommand_NamesOffendingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "exclusions.yaml")
	doc := `apiVersion: build.bindery.dev/v1alpha1
kind: ExtensionManifest
metadata: {name: bad}
spec:
  artifact: {groupId: io.acme, artifactId: bad, version: 1.0.0}
  dependencies:
    - groupId: io.acme
      artifactId: core
      exclusions: ["a:b:c"]
`
	if err := os.WriteFile(file, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := runValidate(t, filepath.Join("testdata", "extensions"), file)
	if err == nil || !strings.Contains(err.Error(), "exclusions.yaml") {
		t.Fatalf("expected error naming the file, got %v", err)
	}
}
