package domain

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestDomainImportsNoInternalPackages ensures the domain layer stays at the
// bottom of the dependency graph: it must not import internal packages or
// third-party modules, so stores and the core can depend on it freely.
func TestDomainImportsNoInternalPackages(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "skyops/pkg/domain")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if strings.HasPrefix(importPath, "skyops/internal") || strings.Contains(importPath, ".") {
				violations = append(violations, pkg.PkgPath+": "+importPath)
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import from domain layer: %s", v)
		}
		t.Fatalf("found %d forbidden imports in pkg/domain", len(violations))
	}
}
