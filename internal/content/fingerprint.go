package content

import (
	"github.com/inful/mdfp"
)

// Fingerprint returns a stable hash of the fragment source. Only a change to
// the file's bytes changes the fingerprint.
func (f *Fragment) Fingerprint() string {
	return mdfp.CalculateFingerprintFromParts(string(f.rawFront), string(f.body))
}
