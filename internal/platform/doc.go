// Package platform contains the social platform integrations (Instagram,
// TikTok, YouTube, Pinterest, Discord). Each integration is a thin typed
// client that builds the HTTP call closure, declares per-operation quota
// costs, and delegates everything defensive (rate windows, quota ledgers,
// circuit breaking, caching, fallbacks) to pkg/resilient.
//
// The clients deliberately model only the response shapes the rest of the
// application needs (profiles, posts, search pages), not the platforms'
// real wire formats.
package platform
