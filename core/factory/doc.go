package factory

// Package factory provides a generic registry used to build modules such as
// devices and metrics sinks from {type, conf} configuration entries.
