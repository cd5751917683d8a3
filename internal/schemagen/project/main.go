// Generates the JSON schema embedded by the projectconfigs package.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/macropower/rat/api/v1beta1/projectconfigs"
	"github.com/macropower/rat/pkg/yaml"
)

var outFile = flag.String("o", "schema.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	if err := run(*outFile); err != nil {
		log.Fatal(err)
	}
}

func run(path string) error {
	gen := yaml.NewSchemaGenerator(projectconfigs.New(),
		"github.com/macropower/rat/api/v1beta1",
		"github.com/macropower/rat/api/v1beta1/projectconfigs",
		"github.com/macropower/rat/pkg/project",
	)

	jsData, err := gen.Generate()
	if err != nil {
		return fmt.Errorf("generate JSON schema: %w", err)
	}

	err = os.WriteFile(path, jsData, 0o600)
	if err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}

	return nil
}
