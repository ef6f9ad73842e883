// package store keeps the local notebook collection in step with the notebook API.
//
// The collection changes only after the server confirms a request, and every change is published
// to subscribers as an [Event]. Derived dashboard views are plain functions over a snapshot.
package store
