// Package api hosts the chi HTTP server that fronts the news site. Notable
// routes:
//   - GET /article/* intercepts link-preview bots and passes everyone else
//     to the single-page application.
//   - GET /api/og is the renderer endpoint (slug or id query, force=1).
//   - GET /api/preview/{identifier} returns the derived metadata as JSON.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
