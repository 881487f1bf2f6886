package addrtable

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

// Load builds a table from a YAML definition. The whole definition is
// validated before the table is returned.
func Load(r io.Reader) (*Table, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, errs.Wrap(errs.KindUnsupportedBuild, "addrtable decode", err)
	}
	return fromDefinition(def)
}

func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "addrtable open", err)
	}
	defer f.Close()
	return Load(f)
}
