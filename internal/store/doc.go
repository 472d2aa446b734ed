// Package store lays out crawl results on disk.
//
// Every reference contract gets a directory named after its address. The
// directory holds the reference source under the same name and one unified
// diff per similar contract, named after the candidate:
//
//	diffs/
//	  0xref.../
//	    0xref...   reference source
//	    0xcand1... diff of candidate 1 against the reference
//	    0xcand2... diff of candidate 2 against the reference
//
// The reviewer enumerates this tree, so the layout is the contract between
// the crawl and review stages.
package store
