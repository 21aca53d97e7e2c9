package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig loads a queue document from disk, validates it, and returns the resulting model.
// JSON documents are accepted as well since they are valid YAML.
func ParseConfig(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cupserrors.NewParseError(path, 0, err)
	}
	return ParseDocument(path, data)
}

// ParseDocument decodes and validates a queue document. path is only used in errors.
func ParseDocument(path string, data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, cupserrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidateDocument(&doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ParseModuleArgs decodes the JSON parameter object of `cupsy module`.
// Unknown keys are ignored since orchestration engines add their own.
func ParseModuleArgs(path string, data []byte) (*ModuleArgs, error) {
	var args ModuleArgs
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&args); err != nil {
		line := 0
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			line = lineAt(data, syntaxErr.Offset)
		}
		return nil, cupserrors.NewParseError(path, line, err)
	}
	args.applyDefaults()

	if err := ValidateQueue(&args.Queue); err != nil {
		return nil, err
	}

	return &args, nil
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
