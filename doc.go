/*
Package mergeflow orchestrates data-bundle merges against a merge service: it
validates and uploads two bundles of data files, submits the asynchronous
merge job, follows it to a terminal state, and keeps the result available for
later inspection.

# Concept

A workflow is a small state machine. Uploading Bundle A establishes a
server-issued session that every later operation is keyed by; once both
bundles hold at least one acknowledged file, the merge can be submitted. The
resulting job is polled sequentially until it succeeds or fails, and a
successful result is persisted in a result store keyed by the session id, so
a separately-running results view can serve it without sharing any memory
with the uploader.

# Key Features

  - Local-first validation: file type and size rules are enforced before any
    network traffic.
  - Explicit ordering: operations that need a session fail fast, locally,
    when none exists.
  - Sequential polling: one in-flight status request at a time, cancellable,
    with stale responses discarded.
  - Pluggable persistence: file, Redis, and in-memory result stores behind
    one contract.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/mergeflow/mergeflow"
		"github.com/mergeflow/mergeflow/pkg/domain"
		"github.com/mergeflow/mergeflow/pkg/workflow"
	)

	func main() {
		wf := mergeflow.New("http://localhost:8000")
		ctx := context.Background()

		a, _ := os.Open("customers.csv")
		defer a.Close()
		info, _ := a.Stat()

		// Bundle A establishes the session.
		err := wf.AddFiles(ctx, domain.BundleA, []workflow.Upload{
			{Name: info.Name(), SizeBytes: info.Size(), Content: a},
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Println("session:", wf.SessionID())

		// ... upload Bundle B the same way, then merge:
		result, err := wf.Continue(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("merged:", result.OutputFiles)
	}
*/
package mergeflow
