// Package infra contains technical adapters such as the SQLite run store,
// metrics exporters and the market price client. These packages should
// depend only on the interfaces defined in the core packages.
package infra
