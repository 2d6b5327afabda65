// Package infra contains technical adapters such as the routing and
// geocoding clients, the Gemini reasoner, stores and metrics exporters.
// These packages should depend only on the interfaces defined in the core
// packages.
package infra
