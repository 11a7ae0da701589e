package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// NewLineReader wraps in for line-oriented prompting. Passing the same
// reader to every prompt keeps buffered input from being lost.
func NewLineReader(in io.Reader) *bufio.Reader {
	if br, ok := in.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(in)
}

// ReadLine prints label and returns the next input line without surrounding space.
func ReadLine(in io.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := NewLineReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

// PromptNote asks for the fields of a new note. Every note created from
// the shell gets a fresh local_id.
func PromptNote(in io.Reader, out io.Writer) NoteInput {
	r := NewLineReader(in)
	title := ReadLine(r, out, "Enter title: ")
	description := ReadLine(r, out, "Enter description: ")
	localID := uuid.NewString()
	return NoteInput{Title: title, Description: description, LocalID: &localID}
}

// PromptEdit asks for replacement fields. Empty answers keep the current value.
func PromptEdit(in io.Reader, out io.Writer) NoteUpdate {
	r := NewLineReader(in)
	var upd NoteUpdate
	if title := ReadLine(r, out, "Enter new title (leave empty to keep): "); title != "" {
		upd.Title = &title
	}
	if description := ReadLine(r, out, "Enter new description (leave empty to keep): "); description != "" {
		upd.Description = &description
	}
	return upd
}
