//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Generate runs the CLI against ./data, writing to ./output.
type Generate mg.Namespace

// outputFormat returns $FILETYPE, or jsonl.
func outputFormat() string {
	if f := os.Getenv("FILETYPE"); f != "" {
		return f
	}
	return "jsonl"
}

// QA generates question/answer pairs from ./data.
func (Generate) QA() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "qa", "--data_directory", "data", "--output_path", "output", "--filetype", outputFormat())
}

// DPO generates preference triples from ./data.
func (Generate) DPO() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "dpo", "--data_directory", "data", "--output_path", "output", "--filetype", outputFormat())
}

// Ledger lists the documents already processed into ./output.
func (Generate) Ledger() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "ledger", "list", "--output_path", "output")
}
