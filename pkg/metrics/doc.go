// Package metrics exposes Prometheus collectors for membership entitlements, payment
// sessions and gateway calls.
//
// Collectors are registered on the registry passed to New, so tests and multiple
// instances do not collide on the default registry:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	svc := membership.NewService(catalog, syncer, membership.WithRecorder(m))
//	router.Handle("/metrics", m.Handler())
//
// *Metrics satisfies membership.Recorder and the payment recorder, and GatewayObserver
// returns a gateway.Observer.
package metrics
