// Package fsutil holds the small filesystem primitives shared by the
// repository and the installer: atomic file replacement and the
// cross-process repository lock.
package fsutil
