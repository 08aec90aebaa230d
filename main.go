// Package main is the entry point for the corpusmetrics CLI.
package main

import (
	"github.com/huangsam/corpusmetrics/cmd"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/store"
)

func main() {
	err := cmd.Execute()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	store.CloseStore()
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
