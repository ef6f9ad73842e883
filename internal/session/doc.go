// package session implements the password gate in front of the notebook API.
//
// A [Session] probes the health endpoint to find out whether the deployment requires a credential,
// validates a persisted credential at startup, and tracks the result as a [State]. Other components
// subscribe to state transitions instead of polling.
package session
