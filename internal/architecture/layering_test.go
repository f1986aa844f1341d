package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePrefix = "neurocal/internal/modules/"

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	walkImports(t, filepath.Join("..", "modules"), func(path, importPath string) {
		if !strings.Contains(importPath, modulePrefix) {
			return
		}
		module := moduleName(path)
		layer := detectLayer(path)
		if module == "" || layer == "" {
			return
		}
		if violatesLayerRule(module, layer, importPath) {
			t.Fatalf("forbidden import in %s (%s): %s", path, layer, importPath)
		}
	})
}

// Platform packages are shared plumbing and never reach into a module.
func TestPlatformDoesNotImportModules(t *testing.T) {
	t.Parallel()
	walkImports(t, filepath.Join("..", "platform"), func(path, importPath string) {
		if strings.Contains(importPath, modulePrefix) || strings.HasPrefix(importPath, "neurocal/internal/ui") {
			t.Fatalf("platform package %s imports %s", path, importPath)
		}
	})
}

func walkImports(t *testing.T, root string, visit func(path, importPath string)) {
	t.Helper()
	fset := token.NewFileSet()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		node, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			return parseErr
		}
		slash := filepath.ToSlash(path)
		for _, imp := range node.Imports {
			visit(slash, strings.Trim(imp.Path.Value, `"`))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" {
			return parts[i+1]
		}
	}
	return ""
}

func detectLayer(path string) string {
	for _, layer := range []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"} {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func hasSegment(importPath, segment string) bool {
	return strings.Contains(importPath, "/"+segment+"/") || strings.HasSuffix(importPath, "/"+segment)
}

func violatesLayerRule(module, layer, importPath string) bool {
	sameModule := strings.Contains(importPath, modulePrefix+module+"/")
	if !sameModule {
		if hasSegment(importPath, "service") || strings.Contains(importPath, "/adapter/") || hasSegment(importPath, "usecase") {
			return true
		}
		if hasSegment(importPath, "port/in") || hasSegment(importPath, "dto") {
			return false
		}
	}

	switch layer {
	case "adapter/in":
		return !hasSegment(importPath, "port/in") && !hasSegment(importPath, "dto")
	case "usecase":
		return strings.Contains(importPath, "/adapter/")
	case "service":
		return strings.Contains(importPath, "/adapter/") || hasSegment(importPath, "usecase")
	case "domain":
		return strings.Contains(importPath, "/adapter/") || hasSegment(importPath, "usecase") || hasSegment(importPath, "service")
	case "port/out", "dto":
		return strings.Contains(importPath, "/adapter/") || hasSegment(importPath, "service") || hasSegment(importPath, "usecase")
	default:
		return false
	}
}

func TestLayerRuleExamples(t *testing.T) {
	t.Parallel()
	cases := []struct {
		module, layer, importPath string
		forbidden                 bool
	}{
		{"calibration", "adapter/in", modulePrefix + "calibration/port/in", false},
		{"calibration", "adapter/in", modulePrefix + "calibration/service", true},
		{"calibration", "service", modulePrefix + "calibration/adapter/out", true},
		{"calibration", "usecase", modulePrefix + "calibration/service", false},
		{"smoother", "service", modulePrefix + "calibration/dto", false},
		{"smoother", "service", modulePrefix + "calibration/service", true},
		{"backend", "domain", modulePrefix + "backend/usecase", true},
	}
	for _, tc := range cases {
		if got := violatesLayerRule(tc.module, tc.layer, tc.importPath); got != tc.forbidden {
			t.Fatalf("%s %s -> %s: expected forbidden=%v", tc.module, tc.layer, tc.importPath, tc.forbidden)
		}
	}
}
