// Package export renders pages to static files.
//
// An Exporter requests each path from an http.Handler, normally a
// *server.Server, with streaming turned off, and hands the buffered page to
// a Publisher. DirPublisher writes a directory tree for any static file
// host; S3Publisher uploads to a bucket.
//
//	exp := export.New(srv, &export.DirPublisher{Root: "dist"})
//	pages, err := exp.Export(ctx, []string{"/", "/blog/hello"})
package export
