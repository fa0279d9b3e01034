// Package repository persists reactive entity collections to Pebble.
//
// A Store owns one database; OpenCollection binds a typed Repository to a
// named collection inside it. Entities are stored as JSON snapshots under
// col/{collection}/ent/{id}, with an append-only CRUD journal under
// col/{collection}/jrn/{seq}.
//
// The repository is a collaborator of reactive.Registry, on both sides of its
// lifecycle:
//
//	store, _ := repository.Open(repository.Options{DataDir: dir})
//	repo, _ := repository.OpenCollection[int, *user](store, "users",
//	    func() *user { return &user{} })
//
//	reg := reactive.NewRegistry[int, *user](reactive.Async())
//	_ = repo.Load(reg)        // silent bulk load, no events
//	sub, _ := repo.Attach(reg) // mirror subsequent events into storage
//	defer sub.Cancel()
package repository
