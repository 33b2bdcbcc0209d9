/*
Package ports defines the driven ports (interfaces) for the merge workflow.

These interfaces decouple the workflow controller from external
implementations, allowing it to work with various result stores and any
transport to the merge service.

# Key Interfaces

  - MergeService: the remote collaborator that accepts uploads, starts merge
    jobs, and reports their status.
  - ResultStore: persists terminal merge results keyed by session ID so a
    separate results view can reconstruct state without re-running the job.
*/
package ports
