// Package mobilecontent implements a small content service around a single
// custom post type, "mobiles". It exposes a bulk submission pipeline with
// per-record validation and side effects (owner resolution, taxonomy terms,
// featured-image sideloading, custom fields) and read projections for
// paginated and per-author fetches.
//
// The package is storage agnostic: persistence, identity and media bytes are
// behind the Repository, UserStore and BlobStore interfaces, with in-memory
// and PostgreSQL repositories and memory/fs/S3 blob stores provided in
// subpackages.
//
// Basic usage:
//
//	svc, err := mobilecontent.New(
//	    mobilecontent.WithRepository(memory.New()),
//	    mobilecontent.WithUserStore(memory.NewUserStore()),
//	    mobilecontent.WithBlobStore("memory", memorystorage.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results := svc.SubmitBatch(ctx, records)
package mobilecontent
