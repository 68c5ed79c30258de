package buffer

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/sneh-joshi/flashline/internal/types"
)

// TestBufferMatchesModel drives a random admit/delete/clear sequence against
// a plain-slice oracle and compares the full contents after every step.
func TestBufferMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := New(MinCapacity)
		var model []string
		seq := 0

		steps := rapid.IntRange(1, 300).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0: // delete a random entry
				if len(model) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(model)-1).Draw(t, "idx")
				if err := b.DeleteAt(idx); err != nil {
					t.Fatalf("DeleteAt(%d): %v", idx, err)
				}
				model = append(model[:idx], model[idx+1:]...)
			case 1: // clear everything
				b.ClearAll()
				model = model[:0]
			default: // admit
				text := fmt.Sprintf("m%d", seq)
				seq++
				b.Admit(&types.Entry{ID: types.MustNewID(), Text: text}, int64(seq))
				model = append(model, text)
				if len(model) > MinCapacity {
					model = model[1:]
				}
			}

			if b.Len() > b.Capacity() {
				t.Fatalf("length %d exceeds capacity %d", b.Len(), b.Capacity())
			}
			if b.Len() != len(model) {
				t.Fatalf("length %d, model has %d", b.Len(), len(model))
			}
			for j, want := range model {
				e, ok := b.At(j)
				if !ok {
					t.Fatalf("At(%d) missing, model has %q", j, want)
				}
				if e.Text != want {
					t.Fatalf("At(%d) = %q, model has %q", j, e.Text, want)
				}
			}
		}
	})
}

// TestNavigatorCursorStaysInRange checks that no sequence of moves can push
// the cursor outside {-1} union [0, length-1].
func TestNavigatorCursorStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nav := NewNavigator(DefaultPageSize)
		length := 0

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 6).Draw(t, "op") {
			case 0: // buffer length changes underneath the cursor
				length = rapid.IntRange(0, 2*MinCapacity).Draw(t, "length")
				nav.Revalidate(length)
			case 1:
				nav.Home(length)
			case 2:
				nav.End(length)
			default:
				delta := rapid.SampledFrom([]int{-1, 1, 0, -DefaultPageSize, DefaultPageSize}).Draw(t, "delta")
				nav.MoveBy(delta, length)
			}

			got := nav.Cursor()
			if length == 0 && got != -1 {
				t.Fatalf("cursor %d with empty buffer, want -1", got)
			}
			if length > 0 && (got < -1 || got >= length) {
				t.Fatalf("cursor %d out of range for length %d", got, length)
			}
		}
	})
}
