// Package domain contains the core types of the bundle-merge workflow:
// sessions, bundles, jobs, merge results, and the error taxonomy shared by
// every adapter. It has no dependencies on transports or stores.
package domain
