package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/paveg/marmoset"
	"github.com/paveg/marmoset/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "Marmoset DataFrame Library CLI (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: marmoset-cli [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --catalog PATH\n\t\tCatalog file to operate on (default: catalog.yaml)\n")
	fmt.Fprintf(os.Stderr, "  --list\n\t\tList registered dataset versions\n")
	fmt.Fprintf(os.Stderr, "  --resolve KEY\n\t\tResolve a version name or dataset name and print the match\n")
	fmt.Fprintf(os.Stderr, "  --validate\n\t\tValidate every entry's consistency and upstream digests\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	catalogPath := flag.String("catalog", "catalog.yaml", "Catalog file to operate on")
	listFlag := flag.Bool("list", false, "List registered dataset versions")
	resolveKey := flag.String("resolve", "", "Resolve a version name or dataset name")
	validateFlag := flag.Bool("validate", false, "Validate catalog entries")

	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage

	flag.Parse()

	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	switch {
	case *listFlag:
		runList(*catalogPath)
	case *resolveKey != "":
		runResolve(*catalogPath, *resolveKey)
	case *validateFlag:
		runValidate(*catalogPath)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func openCatalog(path string) *marmoset.Catalog {
	cat, err := marmoset.OpenCatalog(path, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening catalog %s: %v\n", path, err)
		os.Exit(1)
	}
	return cat
}

func runList(path string) {
	cat := openCatalog(path)
	keys := cat.Keys()
	if len(keys) == 0 {
		fmt.Println("catalog is empty")
		return
	}
	for _, key := range keys {
		ds, err := cat.Find(key)
		if err != nil {
			fmt.Printf("%s\t(unreadable: %v)\n", key, err)
			continue
		}
		fmt.Printf("%s\t%s\t%d upstream\n", key, ds.ContentHash, len(ds.Upstream))
	}
}

func runResolve(path, key string) {
	cat := openCatalog(path)
	res, err := cat.Resolve(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving %s: %v\n", key, err)
		os.Exit(1)
	}
	if res.Kind == marmoset.ResolvedNone {
		fmt.Fprintf(os.Stderr, "%s: no matching entry\n", key)
		os.Exit(1)
	}
	fmt.Printf("%s -> %s (%s)\n", key, res.Dataset.VersionName(), res.Kind)
	fmt.Printf("  urlpath: %s\n", res.Dataset.URLPath)
	fmt.Printf("  digest:  %s\n", res.Dataset.ContentHash)
	for _, up := range res.Dataset.Upstream {
		fmt.Printf("  upstream: %s\n", up.VersionName())
	}
}

func runValidate(path string) {
	cat := openCatalog(path)
	ok, report := cat.Validate()
	for key, checks := range report {
		for _, check := range checks {
			status := "ok"
			if !check.OK {
				status = "FAIL"
			}
			fmt.Printf("%s\t%s\t%s\n", key, check.VersionName, status)
		}
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "catalog validation failed")
		os.Exit(1)
	}
	fmt.Printf("%d entries validated\n", cat.Len())
}
