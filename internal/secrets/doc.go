// Package secrets redacts credentials from container logs before they are
// packed into a support bundle.
//
// Two layers detect secrets. The local regex rules target formats common in
// container output and can require keywords before their pattern runs. The
// gitleaks default rule set runs on the same text when Config.Gitleaks is
// set. An allow list suppresses known-safe matches from both layers, and
// overlapping matches collapse into a single redaction.
package secrets
