package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jlrickert/pubkit/pkg/internal"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/spf13/cobra"
)

var errNoInput = errors.New("no input: pass a file argument or pipe JSON on stdin")

// readInput returns the content of the file named by args[idx], or stdin
// when the argument is missing or "-".
func readInput(cmd *cobra.Command, args []string, idx int) ([]byte, error) {
	if len(args) > idx && args[idx] != "-" {
		return os.ReadFile(args[idx])
	}
	in := cmd.InOrStdin()
	if !internal.IsPipe(in) {
		return nil, errNoInput
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, errNoInput
	}
	return data, nil
}

// singleValued lists the properties that hold one value. Arrays naming one
// of these are unwrapped on input; every other property keeps its array so
// later add and delete operations can extend it.
var singleValued = map[string]bool{
	"content":     true,
	"name":        true,
	"summary":     true,
	"published":   true,
	"updated":     true,
	"start":       true,
	"end":         true,
	"location":    true,
	"checkin":     true,
	"rsvp":        true,
	"visibility":  true,
	"post-status": true,
	"mp-slug":     true,
	"url":         true,
}

func unwrapSingle(key string, v any) any {
	if list, ok := v.([]any); ok && len(list) == 1 && singleValued[key] {
		return list[0]
	}
	return v
}

// decodeProperties accepts either a flat property object or a microformats2
// JSON item ({"type": [...], "properties": {...}}). Arrays of single valued
// mf2 properties are unwrapped.
func decodeProperties(data []byte) (publish.Properties, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	mf2, ok := raw["properties"].(map[string]any)
	if !ok {
		return publish.Properties(raw), nil
	}
	props := publish.Properties{}
	for k, v := range mf2 {
		props[k] = unwrapSingle(k, v)
	}
	return props, nil
}

// decodeOperation reads a micropub update body. "delete" may name whole
// properties (array) or individual values (object). Replace values are
// unwrapped like mf2 properties.
func decodeOperation(data []byte) (publish.Operation, error) {
	var raw struct {
		Add     map[string][]any `json:"add"`
		Replace map[string]any   `json:"replace"`
		Delete  json.RawMessage  `json:"delete"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return publish.Operation{}, fmt.Errorf("decode operation: %w", err)
	}
	op := publish.Operation{Add: raw.Add, Replace: raw.Replace}
	for k, v := range op.Replace {
		op.Replace[k] = unwrapSingle(k, v)
	}
	if len(raw.Delete) == 0 {
		return op, nil
	}
	var keys []string
	if err := json.Unmarshal(raw.Delete, &keys); err == nil {
		op.Delete = keys
		return op, nil
	}
	var entries map[string][]any
	if err := json.Unmarshal(raw.Delete, &entries); err != nil {
		return publish.Operation{}, fmt.Errorf("decode operation: delete must be a list of properties or a map of values")
	}
	op.DeleteEntries = entries
	return op, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
