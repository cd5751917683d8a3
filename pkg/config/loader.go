package config

import (
	"bytes"

	"github.com/macropower/rat/api"
	"github.com/macropower/rat/api/v1beta1"
	"github.com/macropower/rat/pkg/yaml"
)

// Validator checks a decoded document against a schema.
type Validator interface {
	Validate(data any) error
}

// Loader reads one configuration document of kind T, keeping the raw
// bytes around so schema violations can be reported with source context.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] over data. newFunc is the kind
// constructor, for example configs.New or policies.New.
func NewLoaderFromBytes[T v1beta1.Object](data []byte, newFunc func() T, v Validator) *Loader[T] {
	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: v,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithSourceLines(4),
		),
	}
}

// NewLoaderFromFile creates a [Loader] over the contents of path.
func NewLoaderFromFile[T v1beta1.Object](path string, newFunc func() T, v Validator) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, v), nil
}

// Validate checks the document against the kind's schema without binding
// it to T.
func (l *Loader[T]) Validate() error {
	var doc any

	err := yaml.NewDecoder(bytes.NewReader(l.data)).Decode(&doc)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	if l.validator == nil {
		return nil
	}

	err = l.validator.Validate(doc)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	return nil
}

// Load decodes the document into a fresh T and applies kind defaults.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load() (T, error) {
	cfg := l.newFunc()

	err := yaml.NewDecoder(bytes.NewReader(l.data)).Decode(cfg)
	if err != nil {
		var zero T

		return zero, l.yamlError.Wrap(err)
	}

	cfg.EnsureDefaults()

	return cfg, nil
}
