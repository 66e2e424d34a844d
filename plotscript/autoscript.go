// Package plotscript decides what gets plotted from a data box. A plot
// script is a short list of assignments such as
//
//	x = ( d[0] )
//	y = ( d[1], d['Counts (C)'] * 2 )
//	ylabels = 'Counts'
//
// Autoscript modes generate the common scripts from the column layout.
package plotscript

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects how scripts are generated.
type Mode int

const (
	// ModeEdit keeps the user's script untouched.
	ModeEdit Mode = iota
	// ModeShared plots every column against d[0].
	ModeShared
	// ModePairs plots (d[0], d[1]), (d[2], d[3]), ...
	ModePairs
	// ModeTriples plots d[1] and d[2] against d[0], then d[4] and d[5]
	// against d[3], ...
	ModeTriples
	// ModeSharedErrors plots (y, ey) column pairs against d[0].
	ModeSharedErrors
	// ModeIndex plots every column against its array index.
	ModeIndex
	// ModeUser calls the custom generator.
	ModeUser
)

var modeNames = []string{"Edit", "x=d[0]", "Pairs", "Triples", "x=d[0], ey", "x=None", "User"}

var modeAliases = map[string]Mode{
	"edit":    ModeEdit,
	"shared":  ModeShared,
	"pairs":   ModePairs,
	"triples": ModeTriples,
	"errors":  ModeSharedErrors,
	"index":   ModeIndex,
	"user":    ModeUser,
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts a mode index, its display name or an alias such as
// "shared" or "pairs".
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(modeNames) {
			return 0, fmt.Errorf("autoscript mode %d out of range 0..%d", n, len(modeNames)-1)
		}
		return Mode(n), nil
	}
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	if m, ok := modeAliases[strings.ToLower(s)]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown autoscript mode %q", s)
}

// Modes lists the display names in index order.
func Modes() []string { return append([]string(nil), modeNames...) }

// Generator produces scripts for the autoscript modes.
type Generator struct {
	// Custom backs ModeUser. A nil Custom yields a script that fails with
	// an explanatory message.
	Custom func(Data) string
}

// Generate returns the script for mode. ModeEdit returns "".
func (g Generator) Generate(mode Mode, d Data) string {
	if mode == ModeEdit {
		return ""
	}
	n := d.Len()
	if n == 0 {
		return "x = []; y = []; xlabels=[]; ylabels=[]"
	}
	if n == 1 {
		return "x = [None]\ny = [ d[0] ]\n\nxlabels=[ 'Data Point' ]\nylabels=[ 'd[0]' ]"
	}

	k := d.Ckeys()
	col := func(i int) string { return "d[" + strconv.Itoa(i) + "]" }

	switch mode {
	case ModeShared:
		sx := "x = ( d[0]"
		sy := "y = ( d[1]"
		sxl := "xlabels = " + quote(k[0])
		syl := "ylabels = ( " + quote(k[1])
		for i := 2; i < n; i++ {
			sy += ", " + col(i)
			syl += ", " + quote(k[i])
		}
		return sx + " )\n" + sy + " )\n\n" + sxl + "\n" + syl + " )\n"

	case ModePairs:
		sx := "x = ( d[0]"
		sy := "y = ( d[1]"
		sxl := "xlabels = ( " + quote(k[0])
		syl := "ylabels = ( " + quote(k[1])
		for i := 1; i < n/2; i++ {
			sx += ", " + col(2*i)
			sy += ", " + col(2*i+1)
			sxl += ", " + quote(k[2*i])
			syl += ", " + quote(k[2*i+1])
		}
		return sx + " )\n" + sy + " )\n\n" + sxl + " )\n" + syl + " )\n"

	case ModeTriples:
		if n < 3 {
			return g.Generate(ModeShared, d)
		}
		sx := "x = ( d[0], d[0]"
		sy := "y = ( d[1], d[2]"
		sxl := "xlabels = ( " + quote(k[0]) + ", " + quote(k[0])
		syl := "ylabels = ( " + quote(k[1]) + ", " + quote(k[2])
		for i := 1; i < n/3; i++ {
			sx += ", " + col(3*i) + ", " + col(3*i)
			sy += ", " + col(3*i+1) + ", " + col(3*i+2)
			sxl += ", " + quote(k[3*i]) + ", " + quote(k[3*i])
			syl += ", " + quote(k[3*i+1]) + ", " + quote(k[3*i+2])
		}
		return sx + " )\n" + sy + " )\n\n" + sxl + " )\n" + syl + " )\n"

	case ModeSharedErrors:
		if n < 3 {
			return g.Generate(ModeShared, d)
		}
		sx := "x  = ( d[0]"
		sy := "y  = ( d[1]"
		sey := "ey = ( d[2]"
		sxl := "xlabels = " + quote(k[0])
		syl := "ylabels = ( " + quote(k[1])
		for i := 1; i < (n-1)/2; i++ {
			sy += ", " + col(2*i+1)
			sey += ", " + col(2*i+2)
			syl += ", " + quote(k[2*i+1])
		}
		return sx + " )\n" + sy + " )\n" + sey + " )\n\n" + sxl + "\n" + syl + " )\n"

	case ModeIndex:
		sx := "x = ( None"
		sy := "y = ( d[0]"
		sxl := "xlabels = 'Array Index'"
		syl := "ylabels = ( " + quote(k[0])
		for i := 1; i < n; i++ {
			sy += ", " + col(i)
			syl += ", " + quote(k[i])
		}
		return sx + " )\n" + sy + " )\n\n" + sxl + "\n" + syl + " )\n"
	}

	if g.Custom != nil {
		return g.Custom(d)
	}
	return "# no custom autoscript is defined; select another mode\ny = None"
}
