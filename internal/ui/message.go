package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/store"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStarted MsgKind = iota
	MsgLoginResult
	MsgLoggedOut
	MsgStoreEvent
	MsgMutationDone
	MsgOpened
)

// Operation names a store mutation started from the TUI.
type Operation string

const (
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpArchive Operation = "archive"
	OpDelete  Operation = "delete"
	OpRefresh Operation = "refresh"
)

type mutationResult struct {
	op       Operation
	notebook *models.Notebook
	err      error
}

// startedMsg is the constructor for [MsgStarted]
func startedMsg(err error) Msg {
	return Msg{kind: MsgStarted, data: err}
}

// loginResultMsg is the constructor for [MsgLoginResult]
func loginResultMsg(err error) Msg {
	return Msg{kind: MsgLoginResult, data: err}
}

// loggedOutMsg is the constructor for [MsgLoggedOut]
func loggedOutMsg(err error) Msg {
	return Msg{kind: MsgLoggedOut, data: err}
}

// storeEventMsg is the constructor for [MsgStoreEvent]
func storeEventMsg(ev store.Event) Msg {
	return Msg{kind: MsgStoreEvent, data: ev}
}

// mutationDoneMsg is the constructor for [MsgMutationDone]
func mutationDoneMsg(op Operation, nb *models.Notebook, err error) Msg {
	return Msg{kind: MsgMutationDone, data: mutationResult{op: op, notebook: nb, err: err}}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}

// Err returns the error carried by the message, if any.
func (m Msg) Err() error {
	switch d := m.data.(type) {
	case error:
		return d
	case mutationResult:
		return d.err
	case store.Event:
		return d.Err
	default:
		return nil
	}
}
