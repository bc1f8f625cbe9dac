package lp

// Package lp holds the vocabulary shared between the dispatch model builder
// and solver adapters: variables, linear expressions, constraints, problems
// and solutions. It does not solve anything by itself.
