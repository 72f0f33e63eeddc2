// Package prometheus provides a Prometheus-backed implementation of
// realip.Metrics.
//
// Collectors are registered on construction and reused when already
// registered, so multiple resolvers can share one registerer.
package prometheus
