package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePrefix = "staywithme/internal/modules/"

var layers = []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"}

type goFile struct {
	path    string
	imports []string
}

// sourceFiles parses the non-test files under dir, relative to internal/.
func sourceFiles(t *testing.T, dir string) []goFile {
	t.Helper()
	fset := token.NewFileSet()
	var files []goFile
	err := filepath.WalkDir(filepath.Join("..", dir), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return err
		}
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		f := goFile{path: filepath.ToSlash(path)}
		for _, imp := range node.Imports {
			p, _ := strconv.Unquote(imp.Path.Value)
			f.imports = append(f.imports, p)
		}
		files = append(files, f)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestModuleLayerImports(t *testing.T) {
	t.Parallel()
	for _, f := range sourceFiles(t, "modules") {
		module, layer := locate(f.path)
		if module == "" || layer == "" {
			continue
		}
		for _, imp := range f.imports {
			if !strings.HasPrefix(imp, modulePrefix) {
				continue
			}
			if reason := layerViolation(module, layer, imp); reason != "" {
				t.Errorf("%s (%s) imports %s: %s", f.path, layer, imp, reason)
			}
		}
	}
}

func TestPlatformDoesNotImportModules(t *testing.T) {
	t.Parallel()
	for _, f := range sourceFiles(t, "platform") {
		for _, imp := range f.imports {
			if strings.HasPrefix(imp, modulePrefix) || strings.HasPrefix(imp, "staywithme/internal/ui") {
				t.Errorf("%s imports %s", f.path, imp)
			}
		}
	}
}

func TestUIOnlySeesModuleDTOs(t *testing.T) {
	t.Parallel()
	for _, f := range sourceFiles(t, "ui") {
		for _, imp := range f.imports {
			if strings.HasPrefix(imp, modulePrefix) && !strings.HasSuffix(imp, "/dto") {
				t.Errorf("%s imports %s", f.path, imp)
			}
		}
	}
}

func locate(path string) (module, layer string) {
	rest, ok := strings.CutPrefix(path[strings.Index(path, "modules/"):], "modules/")
	if !ok {
		return "", ""
	}
	module, rest, _ = strings.Cut(rest, "/")
	for _, l := range layers {
		if strings.HasPrefix(rest, l+"/") {
			return module, l
		}
	}
	return module, ""
}

func layerViolation(module, layer, imp string) string {
	target := strings.TrimPrefix(imp, modulePrefix)
	targetModule, targetPath, _ := strings.Cut(target, "/")
	if targetModule != module {
		if strings.HasPrefix(targetPath, "port/in") || strings.HasPrefix(targetPath, "dto") {
			return ""
		}
		return "other modules are reachable only through port/in and dto"
	}
	switch layer {
	case "adapter/in":
		if !strings.HasPrefix(targetPath, "port/in") && !strings.HasPrefix(targetPath, "dto") {
			return "inbound adapters drive the module through port/in"
		}
	case "usecase":
		if strings.HasPrefix(targetPath, "adapter/") {
			return "usecases never see adapters"
		}
	case "service":
		if strings.HasPrefix(targetPath, "adapter/") || strings.HasPrefix(targetPath, "usecase") {
			return "services depend on ports, not adapters or usecases"
		}
	case "domain", "dto", "port/in", "port/out":
		if strings.HasPrefix(targetPath, "adapter/") || strings.HasPrefix(targetPath, "usecase") || strings.HasPrefix(targetPath, "service") {
			return "inner layers stay free of outer layers"
		}
	}
	return ""
}
