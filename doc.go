// Package meili is a typed Go client for the Meili document-search HTTP API.
//
// A Client holds one connection configuration and one HTTP transport. Index
// handles are cheap local views over a single index uid and share the
// client's transport; creating one performs no network call.
//
//	client, _ := meili.New(meili.Config{Host: "http://127.0.0.1:7700", APIKey: "masterKey"})
//	movies := client.Index("movies")
//	upd, _ := movies.AddDocuments(ctx, docs, nil)
//	status, _ := movies.GetUpdateStatus(ctx, upd.UpdateID)
//	res, _ := movies.NewSearch("batman").Limit(5).Highlight("title").Do(ctx)
//
// # Failures
//
// Every operation returns exactly one of:
//   - *RemoteError when the server answered with a non-2xx status
//   - *TransportError when no response was received
//   - an error matching ErrCanceled when the call was aborted, either through
//     the caller's context or through Index.CancelSearches
//
// Mutating calls are asynchronous on the server side and return an
// AsyncUpdate whose id can be polled with Index.GetUpdateStatus. The client
// never polls or retries on its own.
package meili
