// Command resonance is the terminal-native live-coding music instrument's
// entry point: it parses a DSL source file, compiles it into a Bundle,
// and either plays it through a live audio device or evaluates it
// headlessly, dumping its event timeline as NDJSON. Flag layout and the
// -v/version handling follow the teacher's cmd/sointu-compile/main.go.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/audiodevice"
	"github.com/resonance-lang/resonance/internal/audioengine"
	"github.com/resonance-lang/resonance/internal/compiler"
	"github.com/resonance-lang/resonance/internal/control"
	"github.com/resonance-lang/resonance/internal/dsl/parser"
	"github.com/resonance-lang/resonance/internal/intent"
	"github.com/resonance-lang/resonance/internal/resolver"
	"github.com/resonance-lang/resonance/internal/scheduler"
	"github.com/resonance-lang/resonance/version"
)

const engineSampleRate = 48000

// Exit codes, distinct per failure stage so a script driving this command
// can tell a syntax error from a semantic one from an I/O failure.
const (
	exitOK            = 0
	exitCompileError  = 2
	exitSemanticError = 3
	exitRuntimeError  = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("resonance", flag.ContinueOnError)
	seed := fs.Uint64("seed", 1, "Deterministic RNG seed for humanize jitter and any other seeded randomness.")
	device := fs.String("device", "", "Audio output device name. Accepted but not used: output always goes to the platform default device.")
	noAudio := fs.Bool("no-audio", false, "Run the full pipeline but discard rendered audio instead of opening a device.")
	eval := fs.String("eval", "", "Compile the given source file and dump its event timeline as NDJSON instead of playing it.")
	versionFlag := fs.Bool("v", false, "Print version.")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: resonance [flags] <file.reso>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitCompileError
	}
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		return exitOK
	}

	file := *eval
	if file == "" {
		if fs.NArg() == 0 {
			fs.Usage()
			return exitCompileError
		}
		file = fs.Arg(0)
	}

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", file, err)
		return exitRuntimeError
	}

	prog, errs := parser.Parse(string(src))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return exitCompileError
	}

	bundle, errs := compiler.Compile(prog, *seed)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return exitSemanticError
	}

	if *eval != "" {
		return dumpNDJSON(bundle)
	}

	return play(bundle, *device, *noAudio)
}

// dumpNDJSON writes one JSON object per event to stdout, newline
// delimited, for --eval's headless inspection mode.
func dumpNDJSON(bundle *resonance.Bundle) int {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	enc := json.NewEncoder(w)
	for _, ev := range bundle.Events {
		if err := enc.Encode(ev); err != nil {
			fmt.Fprintf(os.Stderr, "cannot encode event: %v\n", err)
			return exitRuntimeError
		}
	}
	return exitOK
}

// play opens an audio sink (live or headless) and runs the control/audio
// loop's one-shot callback: drain controls, advance the section/layer
// controller, resolve macro/mapping values, dispatch due events, and
// render — until the callback whose window reaches the bundle's last event,
// or forever if the bundle has no events; stdin activity does not extend
// the run. A background goroutine (§5's control thread, standing in for
// the out-of-scope TUI) reads performance commands from stdin and turns
// them into intent.Actions,
// bridged into this loop's single control-owning goroutine the same way
// the teacher's rpc.Receiver bridges an external input source into a
// channel the run loop drains without blocking (rpc/rpc.go).
func play(bundle *resonance.Bundle, device string, noAudio bool) int {
	_ = device // not used: NewOtoContext always opens the platform default output

	sched := scheduler.New(64)
	sched.PublishBundle(bundle)
	ctrl := control.New(bundle.Sections, bundle.Layers, control.DefaultGraceWindow)
	engine := audioengine.New(bundle, engineSampleRate)
	sess := &intent.Session{Scheduler: sched}
	cmds := readStdinCommands(sess)
	var pending []pendingRelease
	var controlBuf []scheduler.ControlMsg
	var pendingTempo float64

	var ctx resonance.AudioContext
	if noAudio {
		ctx = &audiodevice.HeadlessContext{}
	} else {
		otoCtx, err := audiodevice.NewOtoContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open audio device: %v\n", err)
			return exitRuntimeError
		}
		ctx = otoCtx
	}
	defer ctx.Close()

	sink, err := ctx.Output()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open audio output: %v\n", err)
		return exitRuntimeError
	}
	defer sink.Close()

	tb := resonance.NewTimeBase(engineSampleRate, bundle.Tempo)
	const framesPerCallback = 960
	buf := make([]float32, 2*framesPerCallback)

	var last resonance.Event
	hasLast := bundle.Events != nil && len(bundle.Events) > 0
	if hasLast {
		last = bundle.Events[len(bundle.Events)-1]
	}

	for {
		t0 := tb.Position()
		t1 := tb.Advance(framesPerCallback)

		drainCommands(cmds)

		ctrl.Advance(t1)

		if pendingTempo > 0 && t1.BarIndex() > t0.BarIndex() {
			tb.SetTempo(pendingTempo)
			pendingTempo = 0
		}

		controlBuf = sched.DrainControl(controlBuf, 0)
		for _, msg := range controlBuf {
			if msg.Kind == scheduler.MsgTempoSet {
				pendingTempo = msg.TempoBPM
				continue
			}
			applyControlMsg(ctrl, msg, t1)
		}

		resolved := resolver.Resolve(bundle, sched.Macros.Snapshot(), resonance.Context{
			Section:      ctrl.CurrentSection(),
			ActiveLayers: ctrl.ActiveLayers(),
		})
		engine.ApplyParams(resolved)

		for _, ev := range sched.EventsInWindow(t0, t1) {
			engine.Dispatch(ev)
			if ev.Kind == resonance.PayloadPitchedNote && ev.Duration > 0 {
				pending = append(pending, pendingRelease{
					at:      ev.Time + ev.Duration,
					trackID: ev.TrackID,
					note:    ev.Note.MIDINumber,
				})
			}
		}

		due := pending[:0]
		for _, p := range pending {
			if p.at <= t1 {
				engine.ReleaseNote(p.trackID, p.note)
				continue
			}
			due = append(due, p)
		}
		pending = due

		if _, err := engine.Render(buf, framesPerCallback); err != nil {
			fmt.Fprintf(os.Stderr, "render error: %v\n", err)
			return exitRuntimeError
		}
		if err := sink.WriteAudio(buf); err != nil {
			fmt.Fprintf(os.Stderr, "audio write error: %v\n", err)
			return exitRuntimeError
		}

		if hasLast && t1 >= last.Time {
			break
		}
	}
	return exitOK
}

// pendingRelease is a sustained note awaiting its note-off, queued when its
// PayloadPitchedNote event is dispatched and drained once its Beat arrives.
type pendingRelease struct {
	at      resonance.Beat
	trackID int
	note    int
}

func applyControlMsg(ctrl *control.Controller, msg scheduler.ControlMsg, now resonance.Beat) {
	switch msg.Kind {
	case scheduler.MsgSectionJump:
		ctrl.RequestSectionJump(msg.SectionTarget, now)
	case scheduler.MsgLayerToggle:
		ctrl.RequestLayerToggle(msg.LayerIndex, msg.LayerEnabled, now)
	case scheduler.MsgTempoSet:
		// Tempo changes commit on the next bar boundary (§4.A): play
		// intercepts MsgTempoSet before this call, holds the tempo, and
		// calls TimeBase.SetTempo once that boundary is crossed.
	}
}

// readStdinCommands starts the background reader goroutine that turns
// stdin lines into intent.Actions, bridged into cmds without ever
// blocking the caller — the same shape as the teacher's rpc.Receiver
// spawning a goroutine to feed a channel the run loop drains on its own
// schedule (rpc/rpc.go). The channel is buffered so a burst of typed
// commands queues rather than stalling the reader; a run loop that falls
// behind still only ever sees the latest macro value because SetMacro's
// own Do() writes through scheduler.MacroTable's coalescing mailbox.
func readStdinCommands(sess *intent.Session) <-chan intent.Action {
	cmds := make(chan intent.Action, 16)
	go func() {
		defer close(cmds)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			a, ok := parseCommand(sess, scanner.Text())
			if !ok {
				continue
			}
			cmds <- a
		}
	}()
	return cmds
}

// drainCommands applies every intent.Action currently queued on cmds
// without blocking, from the single goroutine that owns the scheduler
// and controller for this performance (§5).
func drainCommands(cmds <-chan intent.Action) {
	for {
		select {
		case a, ok := <-cmds:
			if !ok {
				return
			}
			a.Do()
		default:
			return
		}
	}
}

// parseCommand turns one line of stdin into an intent.Action. The
// grammar is deliberately minimal — this stands in for the out-of-scope
// TUI, giving §6's core/interface boundary a live caller rather than a
// full performance surface:
//
//	macro <name> <value>       SetMacro
//	nudge <name> <delta>       NudgeMacro
//	layer <index> on|off       ToggleLayer
//	section <index>            JumpSection
//	tempo <bpm>                SetTempo
func parseCommand(sess *intent.Session, line string) (intent.Action, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return intent.Action{}, false
	}
	switch fields[0] {
	case "macro":
		if len(fields) != 3 {
			return intent.Action{}, false
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return intent.Action{}, false
		}
		return intent.MakeAction(&intent.SetMacro{S: sess, Name: fields[1], Value: v}), true
	case "nudge":
		if len(fields) != 3 {
			return intent.Action{}, false
		}
		d, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return intent.Action{}, false
		}
		return intent.MakeAction(&intent.NudgeMacro{S: sess, Name: fields[1], Delta: d}), true
	case "layer":
		if len(fields) != 3 {
			return intent.Action{}, false
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return intent.Action{}, false
		}
		enable := fields[2] == "on"
		return intent.MakeAction(&intent.ToggleLayer{S: sess, Index: idx, Enable: enable}), true
	case "section":
		if len(fields) != 2 {
			return intent.Action{}, false
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return intent.Action{}, false
		}
		return intent.MakeAction(&intent.JumpSection{S: sess, Target: idx}), true
	case "tempo":
		if len(fields) != 2 {
			return intent.Action{}, false
		}
		bpm, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return intent.Action{}, false
		}
		return intent.MakeAction(&intent.SetTempo{S: sess, BPM: bpm}), true
	default:
		return intent.Action{}, false
	}
}
