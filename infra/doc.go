// Package infra contains technical adapters: the simplex solver, zerolog
// logging, metrics sinks and the MQTT schedule publisher. These packages
// depend only on the interfaces defined in the core packages.
package infra
