// Package rest polls external REST endpoints and caches the mapped fields.
//
// Each configured Source is fetched on its own goroutine. Every response is
// reduced to named fields through JSON-path mappings with optional type
// casts, and the results land in a Store keyed by (source, field) with the
// time of the write.
//
// # Architecture
//
//	┌──────────┐  Fetch (retry, backoff)  ┌──────────┐
//	│  Poller  │ ───────────────────────► │  Client  │ ──► HTTP endpoint
//	│ (1 gor.  │ ◄─────────────────────── │          │
//	│  /source)│        payload           └──────────┘
//	└────┬─────┘
//	     │ MapFields (JSONPath + Cast)
//	     ▼
//	┌──────────┐   Get / Age / Snapshot
//	│  Store   │ ◄──────────────────────── condition and math evaluators
//	└──────────┘
//
// # Usage
//
//	store := rest.NewStore()
//	poller, err := rest.NewPoller(rest.NewClient(rest.DefaultClientOptions()), store, sources, 0)
//	if err != nil {
//	    return err
//	}
//	if err := poller.Start(ctx); err != nil { // returns after warm-up
//	    return err
//	}
//	defer poller.Stop()
//
//	temp, ok := store.Get("OpenWeather", "temp")
package rest
