// Package runtime wires config, logging, and the repository store into a
// single-node revent instance. It exposes Open/Close, a basic health check,
// and the store from which typed collections are opened.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	repo, _ := repository.OpenCollection[int, *user](rt.Store(), "users",
//	    func() *user { return &user{} })
package runtime
