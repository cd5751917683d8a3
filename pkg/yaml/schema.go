package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/invopop/jsonschema"
	"golang.org/x/mod/modfile"
)

// SchemaGenerator reflects a configuration type into a JSON schema document.
// Doc comments from the given packages become property descriptions.
type SchemaGenerator struct {
	obj      any
	pkgPaths []string
}

// NewSchemaGenerator creates a [SchemaGenerator] for obj. The pkgPaths list
// names the packages whose Go comments should be extracted; they must belong
// to the enclosing module.
func NewSchemaGenerator(obj any, pkgPaths ...string) *SchemaGenerator {
	return &SchemaGenerator{
		obj:      obj,
		pkgPaths: pkgPaths,
	}
}

// Generate returns the indented JSON schema for the generator's object.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{}

	if len(g.pkgPaths) > 0 {
		err := g.addComments(r)
		if err != nil {
			return nil, err
		}
	}

	jss := r.Reflect(g.obj)
	flattenInlineFields(jss)

	b, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(b, '\n'), nil
}

// addComments extracts Go doc comments from the configured packages. The
// extractor keys comments by joining the base with each walked directory, so
// the walk must run from the module root over module-relative paths for keys
// to line up with [reflect.Type.PkgPath].
func (g *SchemaGenerator) addComments(r *jsonschema.Reflector) error {
	modRoot, modPath, err := findModule()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	err = os.Chdir(modRoot)
	if err != nil {
		return fmt.Errorf("enter module root: %w", err)
	}

	defer func() {
		_ = os.Chdir(cwd)
	}()

	for _, pkgPath := range g.pkgPaths {
		rel, ok := strings.CutPrefix(pkgPath, modPath+"/")
		if !ok {
			return fmt.Errorf("package %s is outside module %s", pkgPath, modPath)
		}

		err := r.AddGoComments(modPath, rel)
		if err != nil {
			return fmt.Errorf("extract comments from %s: %w", pkgPath, err)
		}
	}

	return nil
}

// findModule locates the enclosing Go module by walking up from the working
// directory to the first go.mod, returning its directory and module path.
func findModule() (string, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		gomod := filepath.Join(dir, "go.mod")

		data, err := os.ReadFile(gomod) //nolint:gosec // G304: Path is derived from the working directory.
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return "", "", fmt.Errorf("%s: no module path", gomod)
			}

			return dir, modPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", errors.New("go.mod not found")
		}

		dir = parent
	}
}

// flattenInlineFields merges definitions referenced by fields serialized with
// `json:",inline"` into their parent definitions, matching how the YAML
// decoder sees those documents.
func flattenInlineFields(jss *jsonschema.Schema) {
	for _, def := range jss.Definitions {
		flattenDefinition(def, jss.Definitions)
	}
}

func flattenDefinition(def *jsonschema.Schema, defs jsonschema.Definitions) {
	if def.Properties == nil {
		return
	}

	props := jsonschema.NewProperties()

	for pair := def.Properties.Oldest(); pair != nil; pair = pair.Next() {
		name, prop := pair.Key, pair.Value

		target, ok := inlineTarget(name, prop, defs)
		if !ok {
			props.Set(name, prop)

			continue
		}

		if target.Properties != nil {
			for tp := target.Properties.Oldest(); tp != nil; tp = tp.Next() {
				props.Set(tp.Key, tp.Value)
			}
		}

		// Requirements follow the inlined field: an optional inline group
		// keeps all of its fields optional.
		if slices.Contains(def.Required, name) {
			def.Required = slices.DeleteFunc(def.Required, func(s string) bool {
				return s == name
			})
			def.Required = append(def.Required, target.Required...)
		}
	}

	def.Properties = props
}

// inlineTarget resolves a property created from a `json:",inline"` field. The
// reflector falls back to the Go field name for such fields, so an
// exported-style property name holding only a local $ref identifies one.
func inlineTarget(name string, prop *jsonschema.Schema, defs jsonschema.Definitions) (*jsonschema.Schema, bool) {
	r, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(r) {
		return nil, false
	}

	ref, ok := strings.CutPrefix(prop.Ref, "#/$defs/")
	if !ok {
		return nil, false
	}

	target, ok := defs[ref]

	return target, ok
}
