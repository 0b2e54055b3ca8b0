// Command genedb-check validates a gene/entity reference database and reports
// defects that would surface at runtime as data-integrity faults.
package main

import (
	"flag"
	"fmt"
	"os"

	"virocore/internal/genedb"
	"virocore/internal/infra/genedb/sqlite"
	"virocore/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("genedb-check", flag.ContinueOnError)
	path := fs.String("path", "", "path to the reference data (json seed file or sqlite database)")
	driver := fs.String("driver", "json", "reference data driver: json|sqlite")
	quiet := fs.Bool("quiet", false, "suppress the per-issue listing; exit code only")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *path == "" {
		fmt.Fprintln(os.Stderr, "genedb-check: -path required")
		fs.Usage()
		return 2
	}

	db, err := open(*driver, *path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genedb-check: %v\n", err)
		return 2
	}

	issues := genedb.Validate(db)
	if !*quiet {
		for _, issue := range issues {
			fmt.Println(issue.String())
		}
	}
	genes := len(db.AllGenes())
	entities := len(db.AllEntities())
	if len(issues) > 0 {
		fmt.Fprintf(os.Stderr, "genedb-check: %d issue(s) across %d genes, %d entities\n", len(issues), genes, entities)
		return 1
	}
	fmt.Printf("ok: %d genes, %d entities\n", genes, entities)
	return 0
}

func open(driver, path string) (domain.Database, error) {
	switch genedb.Driver(driver) {
	case genedb.DriverJSON:
		return genedb.OpenJSONFile(path)
	case genedb.DriverSQLite:
		return sqlite.NewStore(path)
	default:
		return nil, fmt.Errorf("unknown driver %q (want json or sqlite)", driver)
	}
}
