// Package client provides a Go client for the parts of the Splunk REST API
// used by entity lookups.
//
// # Quick Start
//
// Create a client authenticated with a Splunk token and run an export search:
//
//	c := client.New(
//	    client.WithBaseURL("https://splunk.example.com:8089"),
//	    client.WithAuthenticator(client.TokenAuth{Token: token}),
//	)
//	resp, err := c.Export(ctx, client.ExportRequest{
//	    Search:       `search index=main "8.8.8.8"`,
//	    EarliestTime: "-30d",
//	}, http.StatusOK, http.StatusNotFound)
//
// The export endpoint streams newline-delimited JSON objects; decoding them is
// left to the caller.
//
// # Authentication
//
// Three Authenticator implementations are provided:
//
//	client.TokenAuth{Token: token}               // Authorization: Bearer <token>
//	client.BasicAuth{Username: u, Password: p}   // HTTP basic auth (Splunk Cloud)
//	client.NewSessionAuth(url, u, p, hc, sessions)  // login once, reuse the session key
//
// SessionAuth stores session keys in the TokenCache of its Sessions, keyed by
// a fingerprint of the credentials. A 401 response drops the cached key.
//
// # Errors
//
// Failures are reported as *TransportError (network failure or unexpected
// status), *AuthError (login or credential failure) and *ParseError (a body
// that is not the JSON Splunk sends). Use errors.As to classify them, and
// ErrorMessages to read Splunk's own message list out of an error body.
//
// # KV Store
//
// KVStoreDocuments queries one collection with a JSON filter, and
// KVStoreCollections lists the collections visible to the caller:
//
//	docs, err := c.KVStoreDocuments(ctx, "search", "threats", client.KVStoreQuery{
//	    Query: map[string]any{"$or": []map[string]any{{"ip": "10.0.0.1"}}},
//	})
package client
