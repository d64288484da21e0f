package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Command drives an external espeak-compatible synthesizer, one process
// per utterance. Boundaries are estimated from the speaking rate while the
// process runs.
type Command struct {
	*queue
	path string
	log  zerolog.Logger
}

// NewCommand returns an engine running the synthesizer at path.
func NewCommand(path string, log zerolog.Logger) *Command {
	c := &Command{path: path, log: log}
	c.queue = newQueue(c.speak)
	return c
}

// Available reports whether the synthesizer binary can be found.
func (c *Command) Available() bool {
	_, err := exec.LookPath(c.path)
	return err == nil
}

// Voices lists installed voices from `espeak-ng --voices`.
func (c *Command) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, c.path, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("%s --voices: %w", c.path, err)
	}
	return parseVoices(out), nil
}

// parseVoices reads the voice table:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{
			Name:     fields[3],
			Language: fields[1],
			Default:  fields[1] == "en" || fields[1] == "en-us",
		})
	}
	return voices
}

// args builds the synthesizer command line for u.
func (c *Command) args(u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	args := []string{
		"-s", strconv.Itoa(int(NominalWPM * rate)),
		"-p", strconv.Itoa(min(99, int(u.Pitch*50))),
	}
	if u.Voice != "" {
		args = append(args, "-v", u.Voice)
	}
	return append(args, "--", u.Text)
}

func (c *Command) speak(u Utterance, stop <-chan struct{}) error {
	cmd := exec.Command(c.path, c.args(u)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.path, err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	// Boundaries stop at process exit or cancellation, whichever is first.
	paceStop := make(chan struct{})
	paced := make(chan struct{})
	go func() {
		defer close(paced)
		paceWords(u, NominalWPM, mergeStop(stop, paceStop))
	}()

	select {
	case <-stop:
		if err := cmd.Process.Kill(); err != nil {
			c.log.Debug().Err(err).Msg("kill synthesizer")
		}
		<-exited
		close(paceStop)
		<-paced
		return ErrInterrupted
	case err := <-exited:
		close(paceStop)
		<-paced
		if err != nil {
			return fmt.Errorf("%s: %w", c.path, err)
		}
		return nil
	}
}

func mergeStop(a <-chan struct{}, b chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		select {
		case <-a:
		case <-b:
		}
	}()
	return out
}
