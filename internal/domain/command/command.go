package command

import (
	"errors"
	"strings"
)

// Verb is one of the closed set of chat verbs.
type Verb string

const (
	VerbStart      Verb = "start"
	VerbResume     Verb = "resume"
	VerbScreenshot Verb = "screenshot"
	VerbDetails    Verb = "details"
	VerbBackup     Verb = "backup"
	VerbStop       Verb = "stop"
)

// Command is a parsed chat command.
type Command struct {
	Verb Verb
	Arg  string
}

var (
	// ErrInvalidCommand is returned for anything outside the verb set.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInstanceNotStarted is the user-facing form of an inactive session.
	ErrInstanceNotStarted = errors.New("instance not started")
	// ErrInstanceAlreadyStarted is the user-facing form of a running session.
	ErrInstanceAlreadyStarted = errors.New("instance already started")
	// ErrNoBackupsFound is returned when resume finds an empty store.
	ErrNoBackupsFound = errors.New("no backups found")
)

// Parse splits text into a verb and the argument after the first space.
// Verbs are case-sensitive; one leading "/" is tolerated since chat
// clients send slash commands. Arguments on verbs that take none are
// ignored.
func Parse(text string) (Command, error) {
	word, arg := text, ""
	if i := strings.IndexByte(text, ' '); i >= 0 {
		word, arg = text[:i], text[i+1:]
	}

	word = strings.TrimPrefix(word, "/")

	switch Verb(word) {
	case VerbStart, VerbResume, VerbScreenshot, VerbDetails, VerbBackup, VerbStop:
		return Command{Verb: Verb(word), Arg: arg}, nil
	}
	return Command{}, ErrInvalidCommand
}
