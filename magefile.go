//go:build mage

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
// Usage: mage
var Default = Test

const (
	binDir    = "bin"
	cliPkg    = "./cmd/reactive"
	coverFile = "coverage.out"
)

// ldflags stamps the CLI version from the VERSION environment variable and
// the commit from git rev-parse.
func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "none"
	}
	return fmt.Sprintf("-X main.version=%s -X main.commit=%s", version, commit)
}

// Build compiles the packages and the reactive CLI into bin/.
func Build() error {
	fmt.Println("Building...")
	if err := sh.RunV("go", "build", "./..."); err != nil {
		return err
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binDir+"/reactive", cliPkg)
}

// Vet runs go vet on the module.
func Vet() error {
	fmt.Println("Vetting...")
	return sh.RunV("go", "vet", "./...")
}

// Test runs all unit tests with the race detector.
// Usage: mage test
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover runs the tests and writes a coverage profile.
func Cover() error {
	fmt.Println("Measuring coverage...")
	if err := sh.RunV("go", "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverFile)
}

// Clean removes build artifacts.
// Usage: mage clean
func Clean() error {
	fmt.Println("Cleaning...")
	if err := sh.Rm(binDir); err != nil {
		return err
	}
	return sh.Rm(coverFile)
}

// Fmt runs go fmt on the module.
func Fmt() error {
	fmt.Println("Formatting...")
	return sh.RunV("go", "fmt", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Tidying go.mod...")
	return sh.RunV("go", "mod", "tidy")
}

// All runs formatting, vet and tests (good for local pre-push).
func All() {
	fmt.Println("Running all checks...")
	mg.SerialDeps(Fmt, Tidy, Vet, Test)
}

// CI is a stricter pipeline entrypoint; logs failure early.
func CI() {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		log.Fatalf("CI failed: %v", err)
	}
	if err := Test(); err != nil {
		log.Fatalf("CI failed: %v", err)
	}
}
