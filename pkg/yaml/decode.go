package yaml

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder wraps the goccy decoder, converting its errors into [Error]s
// carrying the offending token.
type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder returns a Decoder reading from r.
// Duplicate map keys are tolerated rather than rejected.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, yaml.AllowDuplicateMapKey()),
	}
}

func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Pass through non-goccy errors untouched.
	return err
}
