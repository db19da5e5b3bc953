// Package ingestion provides pipeline orchestration for fetching merged pull
// requests and turning them into a searchable corpus.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Fetching merged pull requests from a Source, with retries
//   - Validating the resulting documents
//   - Scoring AI attribution for each document on a worker pool
//   - Adding new documents to a document repository
//   - Writing the fetched batch to a corpus sink (the JSON corpus file)
//
// Fetch failures that remain after retrying abort the run. A run that finds
// no merged pull requests succeeds with an empty report and leaves the sink
// untouched.
package ingestion
