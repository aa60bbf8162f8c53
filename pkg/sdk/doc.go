// Package vecgate embeds the vecgate collection and document services in a
// Go program, without the HTTP layer.
//
// The client talks to the same backends as the server: a local SQLite file
// by default, or Redis/Valkey with the search module, or Postgres.
//
//	client, _ := vecgate.New(ctx, vecgate.WithLocal("data/vecgate.db"))
//	defer client.Close()
//
//	_, _ = client.Collections().Create(ctx, "docs", vecgate.WithSpace(vecgate.SpaceCosine))
//	_, _ = client.Documents("docs").Add(ctx, []vecgate.Document{
//	    {ID: "a", Content: "first", Embedding: []float32{0.1, 0.2}},
//	})
//	rows, _ := client.Documents("docs").Query(ctx, [][]float32{{0.1, 0.2}}, vecgate.WithNResults(1))
package vecgate
