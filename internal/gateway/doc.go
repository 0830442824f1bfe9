// Package gateway is the HTTP client for the novel analysis backend.
//
// Usage:
//
//	client, err := gateway.New(baseURL, token, gateway.WithTimeout(30*time.Second))
//	raw, err := client.RelationshipGraph(ctx, artifact.Query{NovelID: 1, Depth: 2})
//	raw, err := client.Fetch(ctx, artifact.KindCharacterJourney, artifact.Query{NovelID: 1, CharacterID: artifact.Int(3)})
//
// Analysis methods return the raw JSON body; decoding and normalization
// belong to the artifact package. The QA and novel methods decode into their
// own types. Failures are *NetworkError (no response) or *ServerError
// (non-2xx status, with the backend's "detail" message when present).
package gateway
