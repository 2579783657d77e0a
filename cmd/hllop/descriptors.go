package main

import (
	"fmt"
	"io"
	"os"

	"github.com/influxdata/hllop"
	"gopkg.in/yaml.v3"
)

// opKey names the operation of an entry in a descriptor file.
const opKey = "op"

// entry is a single descriptor read from a file, with the op code it is
// to be built with.
type entry struct {
	Code hllop.OpCode
	Desc hllop.Descriptor
}

func loadDescriptors(path string) ([]entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := decodeDescriptors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// decodeDescriptors reads a YAML (or JSON) list of descriptors. Each
// descriptor carries its operation name under the "op" key.
func decodeDescriptors(r io.Reader) ([]entry, error) {
	var raw []map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to decode descriptors: %w", err)
	}

	entries := make([]entry, 0, len(raw))
	for i, m := range raw {
		name, ok := m[opKey].(string)
		if !ok {
			return nil, fmt.Errorf("descriptor %d: %q must be an operation name", i, opKey)
		}
		code, err := hllop.ParseOpCode(name)
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}

		desc := make(hllop.Descriptor, len(m))
		for k, v := range m {
			if k != opKey {
				desc[k] = v
			}
		}
		entries = append(entries, entry{Code: code, Desc: desc})
	}
	return entries, nil
}
