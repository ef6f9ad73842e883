// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through the notebook workflow:
//  1. [ProbingView] : Check whether the API requires a password
//  2. [LoginView] : Collect the password when it does
//  3. [DashboardView] : Stats, recent notebooks, or the full collection
//  4. [CreateView] and [EditView] : Name and description form
//  5. [DeleteView] : Confirm a deletion
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Store events flow through a buffered channel that the model drains with a wait command, so changes made anywhere in the
// process are reflected on screen.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
