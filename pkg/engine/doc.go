// Package engine issues single HTTP requests against one configured target
// and delivers each result through a Future.
//
// An Engine is immutable once built. Every operation starts one exchange on
// a background goroutine and returns immediately; the Future resolves exactly
// once with either the raw response body or the raw transport error. HTTP
// error statuses are not errors: a 404 resolves successfully with whatever
// body the server returned.
//
// # Basic Usage
//
//	eng, err := engine.New(engine.Target{
//	    URL:         "https://api.example.com/items",
//	    Headers:     map[string]string{"Accept": "application/json"},
//	    Credentials: &engine.Credentials{Username: "u", Password: "p"},
//	}, engine.WithLogger(log))
//	if err != nil {
//	    return err // *engine.InvalidURLError
//	}
//
//	body, err := eng.Get(ctx).Await(ctx)
//
// # Response Ordering
//
// Response handling and progress callbacks run on the engine's Executor.
// The default executor is shared and concurrent; pass a SerialExecutor to
// handle responses of several in-flight requests in completion order on a
// single goroutine.
package engine
