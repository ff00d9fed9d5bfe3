package manifest

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"

	binderyv1alpha1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
)

//go:embed schema/manifest.schema.json
var schemaJSON []byte

const schemaURL = "manifest.schema.json"

// Set is the content of one or more manifest files.
type Set struct {
	Applications []binderyv1alpha1.Application
	Extensions   []binderyv1alpha1.ExtensionManifest
}

// Application returns the single application of the set.
func (s *Set) Application() (*binderyv1alpha1.Application, error) {
	switch len(s.Applications) {
	case 1:
		return &s.Applications[0], nil
	case 0:
		return nil, fmt.Errorf("no Application found")
	default:
		return nil, fmt.Errorf("expected one Application, found %d", len(s.Applications))
	}
}

func (s *Set) merge(o *Set) {
	s.Applications = append(s.Applications, o.Applications...)
	s.Extensions = append(s.Extensions, o.Extensions...)
}

// Loader decodes manifest files and validates them against the manifest schema.
type Loader struct {
	schema *jsonschema.Schema
}

func NewLoader() (*Loader, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add manifest schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	return &Loader{schema: s}, nil
}

// LoadPaths loads every file in paths. Directories contribute their *.yaml, *.yml and
// *.json files, non-recursively. All problems are reported together.
func (l *Loader) LoadPaths(paths ...string) (*Set, error) {
	var files []string
	var errs error
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".yaml", ".yml", ".json":
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	sort.Strings(files)

	out := &Set{}
	for _, f := range files {
		s, err := l.LoadFile(f)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out.merge(s)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// LoadFile decodes a possibly multi-document YAML file.
func (l *Loader) LoadFile(path string) (*Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := l.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode validates and decodes every document in raw.
func (l *Loader) Decode(raw []byte) (*Set, error) {
	docs, err := splitDocuments(raw)
	if err != nil {
		return nil, err
	}
	out := &Set{}
	var errs error
	for i, doc := range docs {
		if err := l.decodeOne(doc, out); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("document %d: %w", i, err))
		}
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func (l *Loader) decodeOne(doc []byte, out *Set) error {
	js, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if string(bytes.TrimSpace(js)) == "null" {
		// comment-only document
		return nil
	}

	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := l.schema.Validate(generic); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	var meta struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(js, &meta); err != nil {
		return err
	}
	switch meta.Kind {
	case "Application":
		var app binderyv1alpha1.Application
		if err := json.Unmarshal(js, &app); err != nil {
			return fmt.Errorf("decode Application: %w", err)
		}
		out.Applications = append(out.Applications, app)
	case "ExtensionManifest":
		var ext binderyv1alpha1.ExtensionManifest
		if err := json.Unmarshal(js, &ext); err != nil {
			return fmt.Errorf("decode ExtensionManifest: %w", err)
		}
		out.Extensions = append(out.Extensions, ext)
	default:
		return fmt.Errorf("unsupported kind %q", meta.Kind)
	}
	return nil
}

// splitDocuments splits a YAML stream into its documents, dropping empty ones.
func splitDocuments(raw []byte) ([][]byte, error) {
	r := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(raw)))
	var docs [][]byte
	for {
		doc, err := r.Read()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("split yaml documents: %w", err)
		}
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}
		docs = append(docs, doc)
	}
}
