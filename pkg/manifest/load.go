package manifest

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	yamlutil "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// Read decodes every YAML or JSON document in r. Empty documents (for example
// a trailing "---") are skipped.
func Read(r io.Reader) ([]Document, error) {
	decoder := yamlutil.NewYAMLOrJSONDecoder(r, 2048)
	docs := []Document{}
	for {
		var m map[string]any
		if err := decoder.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrap(err, "failed to decode manifest")
		}
		if len(m) == 0 {
			continue
		}
		doc, err := Normalize(Document(m))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Load reads all documents in the file at path.
func Load(fs afero.Fs, path string) ([]Document, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	docs, err := Read(f)
	return docs, errors.Wrapf(err, "failed to read %s", path)
}

// LoadOne reads a file that must contain exactly one document.
func LoadOne(fs afero.Fs, path string) (Document, error) {
	docs, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	if len(docs) != 1 {
		return nil, errors.Errorf("expected one manifest in %s, found %d", path, len(docs))
	}
	return docs[0], nil
}

// ParseOne decodes a single document from inline YAML or JSON, as given to
// --patch on the command line.
func ParseOne(data []byte) (Document, error) {
	jsonData, err := yaml.YAMLToJSON(bytes.TrimSpace(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse document")
	}
	var m map[string]any
	if err := utiljson.Unmarshal(jsonData, &m); err != nil {
		return nil, errors.Wrap(err, "document must be a mapping")
	}
	return Document(m), nil
}

// ToYAML renders d the way kubectl prints objects.
func ToYAML(d Document) ([]byte, error) {
	data, err := yaml.Marshal(map[string]any(d))
	return data, errors.WithStack(err)
}
