package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNoDescriptor is returned when the analysis descriptor file does not exist.
var ErrNoDescriptor = errors.New("no analysis descriptor")

// descriptorSchema accepts both descriptor layouts:
//
//	{"documents": [...], "persona": {"role": ...}, "job_to_be_done": {"task": ...}}
//	{"documents": [...], "persona": "...", "job": "..."}
const descriptorSchema = `{
  "type": "object",
  "required": ["documents", "persona"],
  "properties": {
    "documents": {
      "type": "array",
      "items": {
        "oneOf": [
          {"type": "string", "minLength": 1},
          {
            "type": "object",
            "required": ["filename"],
            "properties": {"filename": {"type": "string", "minLength": 1}}
          }
        ]
      }
    },
    "persona": {
      "oneOf": [
        {"type": "string"},
        {"type": "object", "required": ["role"], "properties": {"role": {"type": "string"}}}
      ]
    },
    "job_to_be_done": {
      "oneOf": [
        {"type": "string"},
        {"type": "object", "required": ["task"], "properties": {"task": {"type": "string"}}}
      ]
    },
    "job": {"type": "string"}
  },
  "anyOf": [
    {"required": ["job_to_be_done"]},
    {"required": ["job"]}
  ]
}`

var compiledDescriptorSchema = jsonschema.MustCompileString("descriptor.json", descriptorSchema)

// Descriptor names the documents to analyse and who is reading them for what.
type Descriptor struct {
	Documents []string
	Persona   string
	Job       string
}

// rawDescriptor mirrors the accepted JSON layouts after schema validation.
type rawDescriptor struct {
	Documents   []json.RawMessage `json:"documents"`
	Persona     json.RawMessage   `json:"persona"`
	JobToBeDone json.RawMessage   `json:"job_to_be_done"`
	Job         *string           `json:"job"`
}

// ParseDescriptor validates and decodes a descriptor.
func ParseDescriptor(r io.Reader) (Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	if err := compiledDescriptorSchema.Validate(doc); err != nil {
		return Descriptor{}, fmt.Errorf("invalid descriptor: %w", err)
	}

	var raw rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}

	var d Descriptor
	for _, item := range raw.Documents {
		name, err := stringOrField(item, "filename")
		if err != nil {
			return Descriptor{}, fmt.Errorf("document reference: %w", err)
		}
		d.Documents = append(d.Documents, name)
	}
	if d.Persona, err = stringOrField(raw.Persona, "role"); err != nil {
		return Descriptor{}, fmt.Errorf("persona: %w", err)
	}
	if len(raw.JobToBeDone) > 0 {
		if d.Job, err = stringOrField(raw.JobToBeDone, "task"); err != nil {
			return Descriptor{}, fmt.Errorf("job_to_be_done: %w", err)
		}
	} else if raw.Job != nil {
		d.Job = *raw.Job
	}
	return d, nil
}

// ReadDescriptor parses the descriptor at path. A missing file yields
// ErrNoDescriptor.
func ReadDescriptor(path string) (Descriptor, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Descriptor{}, fmt.Errorf("%w at %s", ErrNoDescriptor, path)
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("open descriptor: %w", err)
	}
	defer f.Close()
	return ParseDescriptor(f)
}

// stringOrField decodes either a JSON string or an object's string field.
func stringOrField(raw json.RawMessage, field string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", err
	}
	s, ok := obj[field].(string)
	if !ok {
		return "", fmt.Errorf("missing string field %q", field)
	}
	return s, nil
}

// ResolveDocuments joins each reference onto baseDir and returns the paths
// that name an existing regular file. Unresolved references are logged and
// returned separately.
func ResolveDocuments(baseDir string, refs []string, log *slog.Logger) (found, missing []string) {
	for _, ref := range refs {
		path := ref
		if !filepath.IsAbs(ref) {
			path = filepath.Join(baseDir, ref)
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			log.Info("skipping unresolved document", "document", ref, "path", path)
			missing = append(missing, path)
			continue
		}
		found = append(found, path)
	}
	return found, missing
}

// UsageExample is a descriptor shown when none is present.
func UsageExample() string {
	example := map[string]any{
		"documents":      []string{"doc1.pdf", "doc2.pdf"},
		"persona":        map[string]string{"role": "PhD Researcher in Computational Biology"},
		"job_to_be_done": map[string]string{"task": "Prepare a comprehensive literature review"},
	}
	b, _ := json.MarshalIndent(example, "", "  ")
	return strings.TrimSpace(string(b))
}
