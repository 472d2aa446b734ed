// Package review implements the interactive review stage.
//
// Enumerate walks the diffs tree and yields one model.DiffRecord per diff
// file. The Reviewer shows each record to a Decider and appends the paths
// the Decider selects to the selection file. PromptDecider asks a human on
// a terminal; ScriptedDecider replays fixed answers and is what tests use.
//
// Every selected path is written and synced before the next record is
// shown, so an interrupted session keeps every earlier answer.
package review
