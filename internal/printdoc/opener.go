package printdoc

import (
	"os/exec"
	"runtime"
)

// Opener hands a document to the host environment.
type Opener interface {
	Open(target string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(target string) error

func (f OpenerFunc) Open(target string) error { return f(target) }

// SystemOpener opens files and URLs with the platform's default handler.
type SystemOpener struct{}

// Open starts the platform opener and does not wait for it.
func (SystemOpener) Open(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
