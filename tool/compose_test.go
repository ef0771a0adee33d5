package tool_test

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/toolflow/errors"
	"github.com/kbukum/toolflow/tool"
)

func TestSequence(t *testing.T) {
	reg := newTestRegistry()

	t.Run("all succeed", func(t *testing.T) {
		out, err := tool.Sequence(context.Background(), reg, []tool.Call{
			{Tool: "text", Method: "echo", Args: []any{"a"}},
			{Tool: "text", Method: "upper", Args: []any{"b"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []any{"a", "B"}; !reflect.DeepEqual(out, want) {
			t.Errorf("outputs = %v, want %v", out, want)
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		var after atomic.Int32
		reg := newTestRegistry().RegisterFunc("counter", "hit", func(context.Context, ...any) (any, error) {
			after.Add(1)
			return nil, nil
		})
		out, err := tool.Sequence(context.Background(), reg, []tool.Call{
			{Tool: "text", Method: "echo", Args: []any{"a"}},
			{Tool: "broken", Method: "run"},
			{Tool: "counter", Method: "hit"},
		})
		if !errors.IsCode(err, errors.ErrCodeToolFailed) {
			t.Fatalf("expected TOOL_FAILED, got %v", err)
		}
		if !strings.Contains(err.Error(), "sequence step 1 (broken.run)") {
			t.Errorf("error should locate the call: %v", err)
		}
		if len(out) != 1 || after.Load() != 0 {
			t.Errorf("outputs = %v, later calls = %d", out, after.Load())
		}
	})

	t.Run("empty", func(t *testing.T) {
		out, err := tool.Sequence(context.Background(), reg, nil)
		if err != nil || len(out) != 0 {
			t.Errorf("Sequence(nil) = %v, %v", out, err)
		}
	})
}

func TestParallel(t *testing.T) {
	reg := newTestRegistry()
	calls := []tool.Call{
		{Tool: "text", Method: "upper", Args: []any{"x"}},
		{Tool: "broken", Method: "run"},
		{Tool: "text", Method: "echo", Args: []any{"y"}},
	}

	outcomes := tool.Parallel(context.Background(), reg, calls, 0)
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Output != "X" || outcomes[0].Err != nil {
		t.Errorf("outcome 0 = %+v", outcomes[0])
	}
	if outcomes[1].Err == nil || outcomes[1].Call.Tool != "broken" {
		t.Errorf("outcome 1 = %+v", outcomes[1])
	}
	if outcomes[2].Output != "y" {
		t.Errorf("one failure must not cancel the others: %+v", outcomes[2])
	}

	err := tool.FirstError(outcomes)
	if err == nil || !strings.HasPrefix(err.Error(), "broken.run:") {
		t.Errorf("FirstError = %v", err)
	}
	if tool.FirstError(outcomes[:1]) != nil {
		t.Error("expected no error")
	}
}

func TestParallel_Limit(t *testing.T) {
	var inFlight, peak atomic.Int32
	reg := tool.NewRegistry().RegisterFunc("slow", "run", func(context.Context, ...any) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	})

	calls := make([]tool.Call, 8)
	for i := range calls {
		calls[i] = tool.Call{Tool: "slow", Method: "run"}
	}
	tool.Parallel(context.Background(), reg, calls, 2)

	if peak.Load() > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
	}
}

func TestChain(t *testing.T) {
	reg := newTestRegistry()

	t.Run("output feeds input", func(t *testing.T) {
		out, err := tool.Chain(context.Background(), reg, "go", []tool.Stage{
			{Tool: "text", Method: "upper"},
			{Tool: "text", Method: "echo", Args: []any{"!"}},
		})
		if err != nil || out != "GO!" {
			t.Errorf("Chain = %v, %v", out, err)
		}
	})

	t.Run("transform", func(t *testing.T) {
		out, err := tool.Chain(context.Background(), reg, 42, []tool.Stage{
			{Tool: "text", Method: "upper", Transform: func(prev any) (any, error) {
				return fmt.Sprintf("v%d", prev), nil
			}},
		})
		if err != nil || out != "V42" {
			t.Errorf("Chain = %v, %v", out, err)
		}
	})

	t.Run("transform error", func(t *testing.T) {
		_, err := tool.Chain(context.Background(), reg, nil, []tool.Stage{
			{Tool: "text", Method: "upper", Transform: func(any) (any, error) { return nil, fmt.Errorf("bad input") }},
		})
		if err == nil || !strings.Contains(err.Error(), "transform") {
			t.Errorf("expected transform error, got %v", err)
		}
	})

	t.Run("stage error", func(t *testing.T) {
		_, err := tool.Chain(context.Background(), reg, "x", []tool.Stage{
			{Tool: "text", Method: "upper"},
			{Tool: "missing", Method: "run"},
		})
		if !errors.IsCode(err, errors.ErrCodeToolNotFound) || !strings.Contains(err.Error(), "chain stage 1") {
			t.Errorf("expected stage 1 TOOL_NOT_FOUND, got %v", err)
		}
	})

	t.Run("no stages returns initial", func(t *testing.T) {
		out, err := tool.Chain(context.Background(), reg, "same", nil)
		if err != nil || out != "same" {
			t.Errorf("Chain = %v, %v", out, err)
		}
	})
}
