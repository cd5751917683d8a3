package expr

import (
	"path/filepath"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

// lib extends the base CEL environment with path helpers so rule filters
// can dissect the `path` variable without string gymnastics.
type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Strings(),
		ext.Lists(),

		// Example: pathBase(path) == "style.md".
		pathFunc("pathBase", "path_base", filepath.Base),
		// Example: pathDir(path).startsWith("go").
		pathFunc("pathDir", "path_dir", filepath.Dir),
		// Example: pathExt(path) == ".md".
		pathFunc("pathExt", "path_ext", filepath.Ext),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return nil
}

// pathFunc declares a string -> string CEL function backed by fn.
func pathFunc(name, overloadID string, fn func(string) string) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(overloadID, []*cel.Type{cel.StringType}, cel.StringType,
			cel.UnaryBinding(func(path ref.Val) ref.Val {
				pathValue, ok := path.(types.String).Value().(string)
				if !ok {
					return types.NewErr("%s: invalid string value", name)
				}

				return types.String(fn(pathValue))
			}),
		),
	)
}
