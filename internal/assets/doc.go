// Package assets maintains the asset version map used for cache busting and
// rewrites ?v= query parameters in static HTML files.
package assets
