//go:build mage

// Copyright (c) 2026 The besttest Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Build targets for besttest.
//
//	mage build      Compile the besttest binary to bin/
//	mage test:unit  Run unit tests
//	mage test:all   Run all tests with the race detector
//	mage test:cover Write coverage to bin/coverage.out
//	mage lint       Run go vet and golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install besttest to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "besttest"
	binaryDir  = "bin"
	cmdDir     = "./cmd/besttest"
	versionVar = "github.com/besttest/besttest/internal/cli.Version"
)

// ldflags stamps the version from $BESTTEST_VERSION when set.
func ldflags() string {
	if v := os.Getenv("BESTTEST_VERSION"); v != "" {
		return "-X " + versionVar + "=" + v
	}
	return ""
}

// Build compiles the besttest binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
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
