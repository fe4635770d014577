package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePath = "github.com/mjcole76/octochase"

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// rule forbids packages under Scope from importing anything under one of the
// Forbidden prefixes.
type rule struct {
	Scope     string
	Forbidden []string
}

// The simulation core stays host-agnostic: no transport, no process wiring.
var defaultRules = []rule{
	{
		Scope: modulePath + "/internal/",
		Forbidden: []string{
			"github.com/gorilla/websocket",
			"github.com/go-chi/chi",
			"github.com/gdamore/tcell",
		},
	},
	{
		Scope: modulePath + "/internal/sim",
		Forbidden: []string{
			modulePath + "/internal/net",
			modulePath + "/internal/app",
		},
	},
}

// transportPackages may import their own libraries.
var transportPackages = []string{
	modulePath + "/internal/net",
	modulePath + "/internal/observability",
	modulePath + "/internal/app",
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	pkgs, err := decodePackages(bytes.NewReader(output))
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
		os.Exit(1)
	}

	if violations := findViolations(pkgs, defaultRules); len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func decodePackages(r io.Reader) ([]packageInfo, error) {
	decoder := json.NewDecoder(r)
	var pkgs []packageInfo
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				return pkgs, nil
			}
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
}

func findViolations(pkgs []packageInfo, rules []rule) []string {
	var violations []string
	for _, pkg := range pkgs {
		if hasAnyPrefix(pkg.ImportPath, transportPackages) {
			continue
		}
		for _, r := range rules {
			if !strings.HasPrefix(pkg.ImportPath, r.Scope) {
				continue
			}
			for _, imp := range pkg.Imports {
				if hasAnyPrefix(imp, r.Forbidden) {
					violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
				}
			}
		}
	}
	sort.Strings(violations)
	return violations
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
