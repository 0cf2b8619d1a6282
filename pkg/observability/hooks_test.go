package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnRunStart(ctx, "run-1", []string{"responsive", "minify"})
	p.OnRunComplete(ctx, "run-1", 12, time.Second, nil)

	s := NoopStageHooks{}
	s.OnFileStart(ctx, "responsive", "img/logo.png")
	s.OnVariant(ctx, "responsive", "img/logo.png", "img/logo@2x.png", 2048, time.Millisecond, nil)
	s.OnFlush(ctx, "responsive", 0, errors.New("unused config"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "variant")
	c.OnCacheMiss(ctx, "variant")
	c.OnCacheSet(ctx, "minify", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Stage().(NoopStageHooks); !ok {
		t.Error("Stage() should return NoopStageHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customStage := &testStageHooks{}
	SetStageHooks(customStage)
	if Stage() != customStage {
		t.Error("SetStageHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Stage().(NoopStageHooks); !ok {
		t.Error("Reset() should restore NoopStageHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testStageHooks{}
	SetStageHooks(custom)
	SetStageHooks(nil)

	if Stage() != custom {
		t.Error("SetStageHooks(nil) should be ignored")
	}

	Reset()
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testStageHooks struct{ NoopStageHooks }
type testCacheHooks struct{ NoopCacheHooks }
