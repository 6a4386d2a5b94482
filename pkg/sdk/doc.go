// Package searchkv provides a Go client for lazy secondary-index queries
// over a Redis key-value bucket indexed by the search module.
//
// A bucket is the key space "{bucket_type}:{bucket_name}:"; its index
// decides whether records are field maps (HASH) or plain payloads (JSON).
//
//	client, _ := searchkv.New(ctx, searchkv.WithRedis("localhost:6379", ""))
//	users, _ := client.Bucket(ctx, "default", "users")
//
//	q := users.Query().Where("status", "active").Rows(20)
//	res, _ := q.Iterate(ctx)
//	for i, rec := range res.All() {
//	    fmt.Println(i, rec.Key, rec.Value.Fields())
//	}
//
//	rec, err := users.Query().Where("email", "ann@example.com").Get(ctx)
//	if errors.Is(err, searchkv.ErrMultipleResults) { ... }
//
// Queries are lazy: nothing reaches Redis until a terminal operation
// (Get, GetAt, Count, Iterate, Slice) runs, and repeating the same query
// on one Query value reuses the cached result set.
package searchkv
