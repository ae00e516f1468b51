package controlport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCommit_AllBlankSendsClear(t *testing.T) {
	d := newDisplayBuffers()
	d.Clear()

	messages := d.Commit()
	require.Len(t, messages, 1)
	assert.IsType(t, LcdClear{}, messages[0])
}

func TestCommit_SingleWrite(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(0, 0, "Hello, world!")

	messages := d.Commit()
	require.Len(t, messages, 1)
	assert.Equal(t, LcdWrite{X: 0, Y: 0, Text: "Hello, world!"}, messages[0])
}

func TestCommit_SecondIdenticalCommitIsEmpty(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(3, 2, "STATUS")
	require.Len(t, d.Commit(), 1)

	d.Write(3, 2, "STATUS")
	assert.Empty(t, d.Commit())
}

func TestCommit_MinimalChange(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(0, 0, "Hello, world!")
	_ = d.Commit()

	d.Write(0, 0, "Hello, there!")
	messages := d.Commit()
	require.Len(t, messages, 1)
	assert.Equal(t, LcdWrite{X: 7, Y: 0, Text: "there"}, messages[0])
}

// Scenario: two changed runs on one row three unchanged cells apart collapse
// into a single write spanning both.
func TestCommit_MergesRunsWithinGap(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(0, 0, "ABCDEFGH")
	_ = d.Commit()

	d.Write(0, 0, "AXCDEYGH")
	messages := d.Commit()
	require.Len(t, messages, 1)
	assert.Equal(t, LcdWrite{X: 1, Y: 0, Text: "XCDEY"}, messages[0])
}

func TestCommit_SeparateRunsBeyondGap(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(0, 0, "ABCDEFGH")
	_ = d.Commit()

	// Changes at columns 1 and 6: four unchanged cells apart, no merge.
	d.Write(0, 0, "AXCDEFYH")
	messages := d.Commit()
	require.Len(t, messages, 2)
	assert.Equal(t, LcdWrite{X: 1, Y: 0, Text: "X"}, messages[0])
	assert.Equal(t, LcdWrite{X: 6, Y: 0, Text: "Y"}, messages[1])
}

func TestCommit_PerRowChanges(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(0, 0, "ABCDEFGH")
	d.Write(0, 1, "IJKLMNOP")
	messages := d.Commit()
	require.Len(t, messages, 2)
	assert.Equal(t, LcdWrite{X: 0, Y: 0, Text: "ABCDEFGH"}, messages[0])
	assert.Equal(t, LcdWrite{X: 0, Y: 1, Text: "IJKLMNOP"}, messages[1])

	d.Write(0, 0, "ABCDEFGG")
	d.Write(0, 1, "JJKLMNOP")
	messages = d.Commit()
	require.Len(t, messages, 2)
	assert.Equal(t, LcdWrite{X: 7, Y: 0, Text: "G"}, messages[0])
	assert.Equal(t, LcdWrite{X: 0, Y: 1, Text: "J"}, messages[1])
}

// Scenario: content then clear emits exactly one LcdClear.
func TestCommit_ClearAfterContent(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(0, 0, "Hi")
	messages := d.Commit()
	require.Len(t, messages, 1)
	assert.Equal(t, LcdWrite{X: 0, Y: 0, Text: "Hi"}, messages[0])

	d.Clear()
	messages = d.Commit()
	require.Len(t, messages, 1)
	assert.IsType(t, LcdClear{}, messages[0])

	// And the cleared state is now committed: a further clear-commit is the
	// all-blank shortcut again, not a diff.
	d.Clear()
	messages = d.Commit()
	require.Len(t, messages, 1)
	assert.IsType(t, LcdClear{}, messages[0])
}

func TestWrite_TruncatesAtDisplayEdge(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(15, 0, "ABCDEFGH")

	messages := d.Commit()
	require.Len(t, messages, 1)
	assert.Equal(t, LcdWrite{X: 15, Y: 0, Text: "ABCDE"}, messages[0])
}

func TestWrite_OutOfRangeIsNoOp(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(20, 0, "X")
	d.Write(0, 4, "X")
	d.Write(-1, 0, "X")
	d.Write(0, -1, "X")

	// Nothing staged, so the all-blank shortcut fires.
	messages := d.Commit()
	require.Len(t, messages, 1)
	assert.IsType(t, LcdClear{}, messages[0])
}

func TestForceRefresh_RedrawsNonBlankRows(t *testing.T) {
	d := newDisplayBuffers()
	d.Write(2, 0, "TOP")
	d.Write(0, 3, "  BOTTOM  ")
	_ = d.Commit()

	messages := d.ForceRefresh()
	require.Len(t, messages, 3)
	assert.IsType(t, LcdClear{}, messages[0])
	assert.Equal(t, LcdWrite{X: 2, Y: 0, Text: "TOP"}, messages[1])
	assert.Equal(t, LcdWrite{X: 2, Y: 3, Text: "BOTTOM"}, messages[2])
}

func TestFindContiguousChanges(t *testing.T) {
	var front, back [DisplayWidth]rune
	for i := range front {
		front[i] = ' '
		back[i] = ' '
	}
	copy(front[:8], []rune("ABCDEFGH"))

	// Changes at positions 2-3
	copy(back[:8], []rune("ABXYEFGH"))
	assert.Equal(t, []changeRun{{start: 2, end: 4}}, findContiguousChanges(&front, &back))

	// Changes at positions 1 and 5: gap of 3, merged
	copy(back[:8], []rune("AXCDEYGH"))
	assert.Equal(t, []changeRun{{start: 1, end: 6}}, findContiguousChanges(&front, &back))

	// Changes at positions 1 and 3: gap of 1, merged
	copy(back[:8], []rune("AXCYEFGH"))
	assert.Equal(t, []changeRun{{start: 1, end: 4}}, findContiguousChanges(&front, &back))

	// Change reaching the display edge
	copy(back[:8], []rune("ABCDEFGH"))
	back[DisplayWidth-1] = '!'
	assert.Equal(t, []changeRun{{start: DisplayWidth - 1, end: DisplayWidth}}, findContiguousChanges(&front, &back))
}

// After any sequence of writes and a commit, the committed state equals the
// staged state and an immediate re-commit emits nothing.
func TestCommit_ConvergenceProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newDisplayBuffers()

		writes := rapid.IntRange(1, 6).Draw(rt, "writes")
		for i := 0; i < writes; i++ {
			x := rapid.IntRange(0, DisplayWidth-1).Draw(rt, "x")
			y := rapid.IntRange(0, DisplayHeight-1).Draw(rt, "y")
			n := rapid.IntRange(1, DisplayWidth).Draw(rt, "n")
			text := strings.Repeat(string(rune('A'+i)), n)
			d.Write(x, y, text)
		}

		_ = d.Commit()
		// The staged text is never blank, so a second commit has no diff.
		if extra := d.Commit(); len(extra) != 0 {
			rt.Fatalf("re-commit emitted %v", extra)
		}
	})
}

// Merged runs never overlap: every run starts strictly after the previous
// run's end.
func TestFindContiguousChanges_OrderingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var front, back [DisplayWidth]rune
		for i := range front {
			front[i] = ' '
			back[i] = ' '
		}
		n := rapid.IntRange(0, DisplayWidth-1).Draw(rt, "changes")
		for i := 0; i < n; i++ {
			pos := rapid.IntRange(0, DisplayWidth-1).Draw(rt, "pos")
			back[pos] = '#'
		}

		runs := findContiguousChanges(&front, &back)
		for i, run := range runs {
			if run.start >= run.end {
				rt.Fatalf("empty run %v", run)
			}
			if i > 0 && run.start <= runs[i-1].end {
				rt.Fatalf("runs %v and %v overlap or touch", runs[i-1], run)
			}
		}
	})
}
