// Package main provides the entry point for the contractdiff CLI.
//
// contractdiff crawls a block explorer for verified smart contracts,
// writes a diff of every contract the explorer considers similar against
// its reference, and lets an operator triage those diffs in the terminal.
package main

func main() {
	Execute()
}
