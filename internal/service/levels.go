package service

import "fmt"

// Maturity levels an entry moves through.
const (
	LevelLabNote    = 0
	LevelExperiment = 1
	LevelProject    = 2
	LevelProduct    = 3
)

var (
	levelNames  = [...]string{"note", "experiment", "project", "product"}
	levelLabels = [...]string{"L0 Lab Note", "L1 Experiment", "L2 Project", "L3 Product"}
)

// Enumerations accepted on input.
var (
	EntryTypes  = []string{"note", "experiment", "project", "thought", "product"}
	UpdateTypes = []string{"init", "chore", "feat", "fix", "release"}
	BlockTypes  = []string{BlockTypeMarkdown, BlockTypeComponent, BlockTypeImage, BlockTypePullQuote}
)

// ValidLevel reports whether level is one of the four maturity levels.
func ValidLevel(level int) bool {
	return level >= LevelLabNote && level <= LevelProduct
}

// LevelName returns the canonical entry type for level, e.g. "project" for 2.
func LevelName(level int) string {
	if !ValidLevel(level) {
		return ""
	}
	return levelNames[level]
}

// LevelLabel returns the display label for level, e.g. "L2 Project".
func LevelLabel(level int) string {
	if !ValidLevel(level) {
		return ""
	}
	return levelLabels[level]
}

// transitionMessage is the release log line recorded by Promote.
func transitionMessage(from, to int) string {
	verb := "Moved"
	if to > from {
		verb = "Promoted"
	}
	return fmt.Sprintf("%s from %s to %s.", verb, LevelLabel(from), LevelLabel(to))
}
