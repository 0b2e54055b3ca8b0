package domain

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestDomainImportsNoInternalPackages keeps the domain model pure: it must
// not depend on service, storage, or adapter packages.
func TestDomainImportsNoInternalPackages(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "virocore/pkg/domain")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if strings.HasPrefix(importPath, "virocore/internal") {
				t.Errorf("domain imports %s", importPath)
			}
		}
	}
}
