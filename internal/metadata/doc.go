// Package metadata owns posts-metadata.json, the single source of truth for
// which posts exist, where they live, and the SEO fields rendered for them.
//
// The file is kept in two places, the site root (served) and the workspace
// contents directory (edited). Store reads the root copy first, writes back
// to whichever copy exists, and Sync reconciles the pair by modification time.
package metadata
