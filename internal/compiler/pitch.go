package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

var semitoneOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// parsePitch converts a pitch literal (e.g. "C2", "Eb3", "F#-1") into a MIDI
// note number, using the middle-C-is-60 convention (octave 4 holds MIDI 60).
func parsePitch(lit string) (int, error) {
	if len(lit) < 2 {
		return 0, fmt.Errorf("pitch literal %q too short", lit)
	}
	letter := byte(strings.ToUpper(lit[:1])[0])
	offset, ok := semitoneOffsets[letter]
	if !ok {
		return 0, fmt.Errorf("pitch literal %q has unknown letter %q", lit, letter)
	}
	rest := lit[1:]
	if len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			offset++
		} else {
			offset--
		}
		rest = rest[1:]
	}
	if rest == "" {
		return 0, fmt.Errorf("pitch literal %q missing octave", lit)
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("pitch literal %q has invalid octave %q", lit, rest)
	}
	return (octave+1)*12 + offset, nil
}
