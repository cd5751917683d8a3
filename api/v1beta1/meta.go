// Package v1beta1 contains the v1beta1 API types for rat configuration.
package v1beta1

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

// APIVersion is the current API version for all rat configuration kinds.
const APIVersion = "rat.jacobcolvin.com/v1beta1"

// ValidAPIVersions contains all valid API versions.
var ValidAPIVersions = []string{APIVersion}

// TypeMeta contains the API version and kind metadata common to all config types.
type TypeMeta struct {
	// APIVersion specifies the API version for this configuration.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of configuration.
	Kind string `json:"kind" jsonschema:"title=Kind"`
}

func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// Object is implemented by every configuration kind.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ExtendSchemaWithEnums pins the apiVersion and kind properties of a
// generated schema to their known values, so a mistyped kind fails
// validation instead of decoding into the wrong type.
func ExtendSchemaWithEnums(jss *jsonschema.Schema, apiVersions, kinds []string) {
	constrainProperty(jss, "apiVersion", "API Version", apiVersions)
	constrainProperty(jss, "kind", "Kind", kinds)
}

// constrainProperty rewrites one string property as a oneOf over values.
func constrainProperty(jss *jsonschema.Schema, name, title string, values []string) {
	prop, ok := jss.Properties.Get(name)
	if !ok {
		panic(fmt.Sprintf("%s property not found in schema", name))
	}

	for _, value := range values {
		prop.OneOf = append(prop.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: value,
			Title: title,
		})
	}

	_, _ = jss.Properties.Set(name, prop)
}
