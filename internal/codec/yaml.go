package codec

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// EncodeYAML renders the document as YAML using the same field names as the JSON format.
func EncodeYAML(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// DecodeYAML parses a YAML export document. Validation and error reasons match DecodeJSON.
func DecodeYAML(data []byte) (Document, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return Document{}, formatErr(ReasonInvalidYAML, "%v", err)
	}
	if tree == nil {
		return Document{}, formatErr(ReasonMissingFields, "quiz.title")
	}

	top := make(map[string]json.RawMessage, len(tree))
	for key, value := range tree {
		raw, err := json.Marshal(value)
		if err != nil {
			return Document{}, formatErr(ReasonInvalidYAML, "%s: %v", key, err)
		}
		top[key] = raw
	}
	return decodeTree(top)
}
