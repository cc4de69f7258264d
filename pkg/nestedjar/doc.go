// SPDX-License-Identifier: MPL-2.0

// Package nestedjar reads classes and resources out of archives nested inside
// other archives, without extracting anything to disk.
//
// # Addressing
//
// Locations are URLs. Archive content uses the "nested" scheme, where every
// "!/" boundary enters an archive:
//
//	nested:///srv/app.jar!/modules/org/example/foo/main/lib/foo.jar!/org/example/Foo.class
//	        └── file on disk ─┘└── entry of app.jar ──────────────────┘└── entry of foo.jar ──┘
//
// Exploded directories use the "file" scheme. Relative locations are always
// derived with [Resolve], which composes URLs (RFC 3986 reference resolution)
// and refuses results that climb out of the archive the base points into.
//
// # Reading
//
// An [Opener] reopens the outermost file on every read and walks down the
// archive chain. Stored (uncompressed) nested archives are addressed through
// an io.SectionReader over the enclosing stream; deflated nested archives are
// inflated into memory for the duration of one read. Central-directory
// indexes may be shared through an [IndexCache]; the streams never are, so
// concurrent reads do not interfere.
//
// # Loaders
//
// [LoaderFor] builds a [Loader] anchored at a descriptor's base URL. A Loader
// is a modules.ResourceLoader: missing resources yield a nil resource and a
// nil error so that class loading can fall through to the next loader.
package nestedjar
