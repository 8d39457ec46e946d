// ABOUTME: Mage build targets for habitetl.
// ABOUTME: Build, test, lint, clean, install, and a fixture pipeline run.
//
// Usage:
//
//	mage build            Compile habitetl binary to bin/
//	mage test:all         Run all tests (unit + integration)
//	mage test:unit        Run only unit tests (exclude test/)
//	mage test:integration Build, then run the integration tests
//	mage lint             Run golangci-lint
//	mage sample           Run the pipeline on the bundled fixtures
//	mage clean            Remove build artifacts
//	mage install          Install habitetl to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "habitetl"
	binaryDir  = "bin"
	cmdDir     = "./cmd/habitetl"
	sampleDir  = "sample"
	fixtureDir = "internal/extract/testdata"
)

// Build compiles the habitetl binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	return sh.RunV(binGo, "build", "-v",
		"-ldflags", "-X main.version="+version,
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test groups test targets (all, unit, integration).
type Test mg.Namespace

// All runs all tests (unit and integration).
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs only unit tests, excluding the test/ directory.
func (Test) Unit() error {
	pkgs, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return err
	}
	var unitPkgs []string
	for _, pkg := range strings.Split(pkgs, "\n") {
		if pkg != "" && !strings.HasSuffix(pkg, "/test") && !strings.HasSuffix(pkg, "/magefiles") {
			unitPkgs = append(unitPkgs, pkg)
		}
	}
	if len(unitPkgs) == 0 {
		fmt.Println("No unit test packages found.")
		return nil
	}
	args := append([]string{"test", "-v"}, unitPkgs...)
	return sh.RunV(binGo, args...)
}

// Integration builds first, then runs only the integration tests.
func (Test) Integration() error {
	mg.Deps(Build)
	return sh.RunV(binGo, "test", "-v", "./test/...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Sample runs the pipeline on the bundled fixtures into sample/.
func Sample() error {
	mg.Deps(Build)
	if err := os.MkdirAll(sampleDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(filepath.Join(binaryDir, binaryName), "run",
		"--input-dir", fixtureDir,
		"--warehouse-path", filepath.Join(sampleDir, "meshos_warehouse.db"),
		"--summary-path", filepath.Join(sampleDir, "pipeline_summary.json"),
		"--parquet-dir", filepath.Join(sampleDir, "lake"))
}

// Clean removes build artifacts.
func Clean() error {
	for _, dir := range []string{binaryDir, sampleDir} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
