package transforms

import (
	"errors"
	"slices"
	"testing"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

func vec(vals ...float64) etensor.Tensor {
	t := etensor.New(etensor.FLOAT64, []int{len(vals)}, nil, nil)
	for i, v := range vals {
		t.SetFloat1D(i, v)
	}
	return t
}

func values(t *testing.T, tsr etensor.Tensor) []float64 {
	t.Helper()
	out := make([]float64, tsr.Len())
	for i := range out {
		out[i] = tsr.FloatVal1D(i)
	}
	return out
}

func TestStack(t *testing.T) {
	boxSpaces := map[string]spaces.Space{
		"agent_0": spaces.NewBox(0, 100, []int{2}, etensor.FLOAT64),
	}

	t.Run("test construction validation", func(t *testing.T) {
		if _, err := NewStack(boxSpaces, 0); !errors.Is(err, ErrInvalidParam) {
			t.Errorf("Expected ErrInvalidParam for stack size 0, got %v", err)
		}
		rank4 := map[string]spaces.Space{
			"agent_0": spaces.NewBox(0, 1, []int{2, 2, 2, 2}, etensor.FLOAT64),
		}
		if _, err := NewStack(rank4, 3); !errors.Is(err, spaces.ErrUnsupportedSpace) {
			t.Errorf("Expected ErrUnsupportedSpace for rank 4, got %v", err)
		}
	})

	t.Run("test rolling window order", func(t *testing.T) {
		tr, err := NewStack(boxSpaces, 3)
		if err != nil {
			t.Fatalf("NewStack failed: %v", err)
		}
		if err := tr.Reset([]string{"agent_0"}); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}

		// First frame lands in the trailing slot of a zero-filled buffer.
		out, err := tr.Modify("agent_0", vec(1, 2))
		if err != nil {
			t.Fatalf("Modify failed: %v", err)
		}
		if got := values(t, out); !slices.Equal(got, []float64{0, 0, 0, 0, 1, 2}) {
			t.Errorf("After first frame: %v", got)
		}

		if _, err := tr.Modify("agent_0", vec(3, 4)); err != nil {
			t.Fatalf("Modify failed: %v", err)
		}
		out, err = tr.Modify("agent_0", vec(5, 6))
		if err != nil {
			t.Fatalf("Modify failed: %v", err)
		}
		// Oldest first: frames 1-2, 3-4, 5-6.
		if got := values(t, out); !slices.Equal(got, []float64{1, 2, 3, 4, 5, 6}) {
			t.Errorf("After three frames: %v", got)
		}

		out, err = tr.Modify("agent_0", vec(7, 8))
		if err != nil {
			t.Fatalf("Modify failed: %v", err)
		}
		if got := values(t, out); !slices.Equal(got, []float64{3, 4, 5, 6, 7, 8}) {
			t.Errorf("After overflow frame: %v", got)
		}
	})

	t.Run("test returned buffer is stable", func(t *testing.T) {
		tr, err := NewStack(boxSpaces, 2)
		if err != nil {
			t.Fatalf("NewStack failed: %v", err)
		}
		if err := tr.Reset([]string{"agent_0"}); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		first, _ := tr.Modify("agent_0", vec(1, 1))
		held := values(t, first)
		if _, err := tr.Modify("agent_0", vec(9, 9)); err != nil {
			t.Fatalf("Modify failed: %v", err)
		}
		if got := values(t, first); !slices.Equal(got, held) {
			t.Errorf("Held observation changed from %v to %v", held, got)
		}
	})

	t.Run("test two-dimensional rows", func(t *testing.T) {
		spcs := map[string]spaces.Space{
			"agent_0": spaces.NewBox(0, 100, []int{2, 2}, etensor.FLOAT64),
		}
		tr, err := NewStack(spcs, 2)
		if err != nil {
			t.Fatalf("NewStack failed: %v", err)
		}
		if err := tr.Reset([]string{"agent_0"}); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		obs := etensor.New(etensor.FLOAT64, []int{2, 2}, nil, nil)
		for i := 0; i < 4; i++ {
			obs.SetFloat1D(i, float64(i+1))
		}
		out, err := tr.Modify("agent_0", obs)
		if err != nil {
			t.Fatalf("Modify failed: %v", err)
		}
		// Each leading row stacks independently along the last axis.
		if got := values(t, out); !slices.Equal(got, []float64{0, 0, 1, 2, 0, 0, 3, 4}) {
			t.Errorf("Stacked 2D values: %v", got)
		}
	})

	t.Run("test discrete positional code", func(t *testing.T) {
		spcs := map[string]spaces.Space{
			"agent_0": &spaces.Discrete{N: 5},
		}
		tr, err := NewStack(spcs, 2)
		if err != nil {
			t.Fatalf("NewStack failed: %v", err)
		}
		if err := tr.Reset([]string{"agent_0"}); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		scalar := func(v float64) etensor.Tensor {
			s := etensor.New(etensor.INT64, []int{1}, nil, nil)
			s.SetFloat1D(0, v)
			return s
		}
		// Codes mod 5^2: 3, then 3*5+4=19, then (19*5+1)%25=21.
		for _, tc := range []struct{ in, want float64 }{{3, 3}, {4, 19}, {1, 21}} {
			out, err := tr.Modify("agent_0", scalar(tc.in))
			if err != nil {
				t.Fatalf("Modify failed: %v", err)
			}
			if got := out.FloatVal1D(0); got != tc.want {
				t.Errorf("Code after %v = %v, want %v", tc.in, got, tc.want)
			}
		}
	})

	t.Run("test shape mismatch panics", func(t *testing.T) {
		tr, err := NewStack(boxSpaces, 2)
		if err != nil {
			t.Fatalf("NewStack failed: %v", err)
		}
		if err := tr.Reset([]string{"agent_0"}); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		defer func() {
			if recover() == nil {
				t.Error("Expected panic on shape mismatch")
			}
		}()
		tr.Modify("agent_0", vec(1, 2, 3))
	})
}
