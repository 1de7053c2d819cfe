// Package main hosts the ogshim entrypoint.
//
// Request flow:
//   - /article/<slug-or-id>: the intercept dispatcher classifies the User-Agent. Crawlers get a rendered meta
//     document; humans, misses and any failure fall through to the app (static SPA build or a proxied origin).
//   - /api/og?slug=|id=: the renderer endpoint. Humans are redirected to /article/<identifier> unless force=1,
//     missing identifiers are 400, misses are 404 and a missing store configuration is 500. Forced renders are
//     rate-limited per client IP.
//   - /api/preview/<identifier>: the derived metadata as JSON, for editors checking how a link will unfurl.
//   - /healthz, /readyz and /metrics for the platform.
//
// Configuration is read by Viper from an optional YAML file and OGSHIM_* environment variables, with the
// SUPABASE_*, VITE_* and SITE_* names hosting platforms already export as fallbacks. A .env file in the working
// directory is loaded first when present.
//
// Quick checklist:
//   - Run locally against a seeded SQLite file:
//     ogshim seed -f seed.json && OGSHIM_STORE_BACKEND=sqlite ogshim serve
//   - Preview a document: ogshim render <slug>
//   - Check a crawler token: ogshim classify "facebookexternalhit/1.1"
package main
